package transform

// Fixture is the fixed object-space point set the model matrix is applied to.
// It is a value type; nothing in this package mutates one after construction.
type Fixture [8]Vector4

// DefaultHalfSize is the half edge length of the default cube.
const DefaultHalfSize = 0.7

// Cube returns an axis-aligned cube centered at the origin with edge length
// 2*half. Vertices 0-3 form the -Z face and 4-7 the +Z face, each wound
// counterclockwise when viewed from -Z.
func Cube(half float64) Fixture {
	s := half
	return Fixture{
		Point(-s, -s, -s), Point(s, -s, -s),
		Point(s, s, -s), Point(-s, s, -s),
		Point(-s, -s, s), Point(s, -s, s),
		Point(s, s, s), Point(-s, s, s),
	}
}

// Face names, in CubeFaces order.
const (
	FaceFront  = iota // +Z
	FaceBack          // -Z
	FaceLeft          // -X
	FaceRight         // +X
	FaceTop           // +Y
	FaceBottom        // -Y
)

// CubeFaces lists the vertex indices of each quad face.
var CubeFaces = [6][4]int{
	{4, 5, 6, 7},
	{0, 1, 2, 3},
	{0, 4, 7, 3},
	{1, 5, 6, 2},
	{3, 2, 6, 7},
	{0, 1, 5, 4},
}

// CubeEdges lists the vertex index pairs of the 12 cube edges.
var CubeEdges = [12][2]int{
	{0, 1}, {1, 2}, {2, 3}, {3, 0},
	{4, 5}, {5, 6}, {6, 7}, {7, 4},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}
