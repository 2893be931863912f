package assets

import (
	"fmt"

	"github.com/gekko3d/csm/shadowrt/rt/core"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// LoadGLTF opens a .gltf or .glb file and flattens every mesh primitive
// reachable from the default scene into world-space MeshData. Node
// transforms are baked into the vertices so the result can be placed with a
// plain Transform.
func LoadGLTF(path string) ([]core.MeshData, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gltf open %q: %w", path, err)
	}

	prims := make([][]core.MeshData, len(doc.Meshes))
	for mi, gm := range doc.Meshes {
		for pi, prim := range gm.Primitives {
			m, err := readPrimitive(doc, gm.Name, pi, prim)
			if err != nil {
				return nil, fmt.Errorf("gltf %q mesh %d prim %d: %w", path, mi, pi, err)
			}
			prims[mi] = append(prims[mi], m)
		}
	}

	var out []core.MeshData
	var visit func(idx int, parent mgl32.Mat4, depth int)
	visit = func(idx int, parent mgl32.Mat4, depth int) {
		// glTF forbids cycles; depth guards against malformed files.
		if idx < 0 || idx >= len(doc.Nodes) || depth > len(doc.Nodes) {
			return
		}
		n := doc.Nodes[idx]
		world := parent.Mul4(nodeMatrix(n))
		if n.Mesh != nil && *n.Mesh < len(prims) {
			for _, p := range prims[*n.Mesh] {
				out = append(out, bake(p, world))
			}
		}
		for _, c := range n.Children {
			visit(c, world, depth+1)
		}
	}
	for _, root := range sceneRoots(doc) {
		visit(root, mgl32.Ident4(), 0)
	}
	return out, nil
}

func readPrimitive(doc *gltf.Document, meshName string, primIdx int, prim *gltf.Primitive) (core.MeshData, error) {
	name := fmt.Sprintf("%s_p%d", meshName, primIdx)
	if meshName == "" {
		name = fmt.Sprintf("prim_%d", primIdx)
	}

	posIdx, ok := prim.Attributes["POSITION"]
	if !ok {
		return core.MeshData{}, fmt.Errorf("no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return core.MeshData{}, fmt.Errorf("positions: %w", err)
	}

	var normals [][3]float32
	if idx, ok := prim.Attributes["NORMAL"]; ok {
		normals, _ = modeler.ReadNormal(doc, doc.Accessors[idx], nil)
	}

	m := core.MeshData{Name: name, Vertices: make([]core.Vertex, len(positions))}
	for i, p := range positions {
		v := core.Vertex{Position: p, Normal: [3]float32{0, 0, 1}}
		if i < len(normals) {
			v.Normal = normals[i]
		}
		m.Vertices[i] = v
	}

	if prim.Indices != nil {
		m.Indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return core.MeshData{}, fmt.Errorf("indices: %w", err)
		}
	} else {
		m.Indices = make([]uint32, len(positions))
		for i := range m.Indices {
			m.Indices[i] = uint32(i)
		}
	}
	m.ComputeBounds()
	return m, nil
}

// sceneRoots returns the default scene's root nodes, or every parentless
// node when the file has no default scene.
func sceneRoots(doc *gltf.Document) []int {
	if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
		return doc.Scenes[*doc.Scene].Nodes
	}
	hasParent := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c < len(hasParent) {
				hasParent[c] = true
			}
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !hasParent[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

// nodeMatrix composes T*R*S with the explicit matrix. A node carries one or
// the other, and the missing one defaults to identity.
func nodeMatrix(n *gltf.Node) mgl32.Mat4 {
	t := n.TranslationOrDefault()
	r := n.RotationOrDefault()
	s := n.ScaleOrDefault()
	trs := mgl32.Translate3D(float32(t[0]), float32(t[1]), float32(t[2])).
		Mul4(mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}}.Mat4()).
		Mul4(mgl32.Scale3D(float32(s[0]), float32(s[1]), float32(s[2])))

	var explicit mgl32.Mat4
	for i, v := range n.MatrixOrDefault() {
		explicit[i] = float32(v)
	}
	return trs.Mul4(explicit)
}

func bake(m core.MeshData, world mgl32.Mat4) core.MeshData {
	out := core.MeshData{
		Name:     m.Name,
		Vertices: make([]core.Vertex, len(m.Vertices)),
		Indices:  append([]uint32(nil), m.Indices...),
	}
	normalMat := world.Mat3().Inv().Transpose()
	for i, v := range m.Vertices {
		p := world.Mul4x1(mgl32.Vec3(v.Position).Vec4(1)).Vec3()
		n := normalMat.Mul3x1(v.Normal)
		if n.Len() > 0 {
			n = n.Normalize()
		}
		out.Vertices[i] = core.Vertex{Position: p, Normal: n}
	}
	out.ComputeBounds()
	return out
}
