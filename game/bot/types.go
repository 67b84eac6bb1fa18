package bot

import (
	"fmt"
	"math"
	"strconv"
)

// Vec3 is a point in world space
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns v+o
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Sub returns v-o
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// Floored returns the block coordinate containing v
func (v Vec3) Floored() Vec3 {
	return Vec3{X: math.Floor(v.X), Y: math.Floor(v.Y), Z: math.Floor(v.Z)}
}

// DistanceTo returns the euclidean distance between v and o
func (v Vec3) DistanceTo(o Vec3) float64 {
	d := v.Sub(o)
	return math.Sqrt(d.X*d.X + d.Y*d.Y + d.Z*d.Z)
}

// String renders the vector as "(x, y, z)" using the shortest exact number form.
func (v Vec3) String() string {
	return fmt.Sprintf("(%s, %s, %s)", FormatCoord(v.X), FormatCoord(v.Y), FormatCoord(v.Z))
}

// FormatCoord formats a coordinate without trailing zeros (3 -> "3", 2.5 -> "2.5").
func FormatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// BlockType identifies a kind of block in the server's registry
type BlockType struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Block is a block read from the world at a position
type Block struct {
	Name     string `json:"name"`
	Type     int    `json:"type"`
	Position Vec3   `json:"position"`
}

// IsAir reports whether the block is empty space
func (b *Block) IsAir() bool {
	return b == nil || b.Name == "air"
}

// Item is an inventory stack
type Item struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
	Slot  int    `json:"slot"`
}

// Goal is a movement target. Range 0 means standing on the exact block.
type Goal struct {
	Target Vec3    `json:"target"`
	Range  float64 `json:"range"`
}

// GoalBlock targets the exact block at x, y, z
func GoalBlock(x, y, z float64) Goal {
	return Goal{Target: Vec3{X: x, Y: y, Z: z}}
}

// GoalNear targets any position within r blocks of x, y, z
func GoalNear(x, y, z, r float64) Goal {
	return Goal{Target: Vec3{X: x, Y: y, Z: z}, Range: r}
}

// ConnectOptions describe the server and identity a Dialer connects with
type ConnectOptions struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Version  string `json:"version"`
}

// Addr returns host:port
func (o ConnectOptions) Addr() string {
	return fmt.Sprintf("%s:%d", o.Host, o.Port)
}

// Placement faces tried in order when placing against a neighbour block.
var (
	FaceUp    = Vec3{X: 0, Y: 1, Z: 0}
	FaceDown  = Vec3{X: 0, Y: -1, Z: 0}
	FaceEast  = Vec3{X: 1, Y: 0, Z: 0}
	FaceWest  = Vec3{X: -1, Y: 0, Z: 0}
	FaceSouth = Vec3{X: 0, Y: 0, Z: 1}
	FaceNorth = Vec3{X: 0, Y: 0, Z: -1}
)

// PlacementFaces lists the faces in the order placement is attempted
func PlacementFaces() []Vec3 {
	return []Vec3{FaceUp, FaceDown, FaceEast, FaceWest, FaceSouth, FaceNorth}
}
