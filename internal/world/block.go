package world

// Material is the content of a single voxel.
type Material uint8

const (
	MaterialAir Material = iota
	MaterialGrass
	MaterialDirt
	MaterialRock
	MaterialSand
	MaterialWood
	MaterialLeaves
	MaterialCloud

	materialCount
)

var materialNames = [materialCount]string{
	MaterialAir:    "air",
	MaterialGrass:  "grass",
	MaterialDirt:   "dirt",
	MaterialRock:   "rock",
	MaterialSand:   "sand",
	MaterialWood:   "wood",
	MaterialLeaves: "leaves",
	MaterialCloud:  "cloud",
}

// Solid reports whether the material occludes its neighbours and can be
// stood on.
func (m Material) Solid() bool {
	return m != MaterialAir && m != MaterialCloud
}

// Floor reports whether an entity may stand on top of the material.
func (m Material) Floor() bool {
	return m == MaterialGrass || m == MaterialDirt || m == MaterialRock || m == MaterialSand
}

func (m Material) String() string {
	if m < materialCount {
		return materialNames[m]
	}
	return "unknown"
}
