package cascade

import (
	"github.com/gekko3d/csm/shadowrt/rt/core"

	"github.com/go-gl/mathgl/mgl32"
)

// DefaultDepthMargin extends the light-space depth range on both sides so
// casters between the light and the frustum slice still land in the map.
const DefaultDepthMargin = 20.0

const degenerateEps = 1e-4

// Extents is an axis-aligned range in light view space.
type Extents struct {
	MinX, MaxX float32
	MinY, MaxY float32
	MinZ, MaxZ float32
}

// Info is everything computed for one cascade of one light.
type Info struct {
	Near, Far float32
	// Degenerate cascades have no matrix and no volume and are not rendered.
	Degenerate bool

	Corners   [8]mgl32.Vec3
	Eye       mgl32.Vec3
	LightView mgl32.Mat4
	// Extents are the corner extents before the depth margin is applied.
	Extents Extents
	// MinZ and MaxZ include the depth margin.
	MinZ, MaxZ float32

	Matrix mgl32.Mat4
	Volume core.OBB
}

// Builder fits light-space transforms around camera frustum slices.
type Builder struct {
	Bounds      *Bounds
	Convention  DepthConvention
	DepthMargin float32
}

func NewBuilder(bounds *Bounds, conv DepthConvention) *Builder {
	if bounds == nil {
		bounds = NewBounds()
	}
	return &Builder{
		Bounds:      bounds,
		Convention:  conv,
		DepthMargin: DefaultDepthMargin,
	}
}

// Compute builds the light-space matrix and bounding volume for cascade index.
// The result depends only on its inputs.
func (b *Builder) Compute(light core.DirectionalLight, index int, cam Camera) Info {
	near, far := b.Bounds.Resolve(index, cam.Near(), cam.Far())
	info := Info{
		Near:      near,
		Far:       far,
		LightView: mgl32.Ident4(),
		Matrix:    mgl32.Ident4(),
		Volume:    core.EmptyOBB(),
	}
	// A perspective projection cannot be inverted with a plane at or behind the
	// eye. An inverted range has no slice to fit.
	if near >= far || near <= 0 || far <= 0 || light.Direction.Len() < degenerateEps {
		info.Degenerate = true
		return info
	}

	info.Corners = frustumCorners(cam, b.clipSpace(cam), near, far)

	var centroid mgl32.Vec3
	for _, c := range info.Corners {
		centroid = centroid.Add(c)
	}
	centroid = centroid.Mul(1.0 / 8.0)
	info.Eye = centroid

	forward := light.Direction.Normalize()
	view := mgl32.LookAtV(centroid, centroid.Add(forward), lightUp(forward))
	info.LightView = view

	ext := lightExtents(view, info.Corners)
	info.Extents = ext
	info.MinZ = ext.MinZ - b.DepthMargin
	info.MaxZ = ext.MaxZ + b.DepthMargin

	// View space looks down -Z, so the nearest point to the light is at MaxZ.
	proj := b.Convention.Ortho(ext.MinX, ext.MaxX, ext.MinY, ext.MaxY, -info.MaxZ, -info.MinZ)
	info.Matrix = proj.Mul4(view)
	info.Volume = lightVolume(view, ext.MinX, ext.MaxX, ext.MinY, ext.MaxY, info.MinZ, info.MaxZ)
	return info
}

func (b *Builder) clipSpace(cam Camera) core.ClipSpace {
	if cs, ok := cam.(clipSpacer); ok {
		return cs.ClipSpace()
	}
	return b.Convention.Clip
}

// frustumCorners unprojects the NDC cube of the camera restricted to
// [near, far]. Index bit 0 selects +X, bit 1 +Y, bit 2 the far plane.
func frustumCorners(cam Camera, clip core.ClipSpace, near, far float32) [8]mgl32.Vec3 {
	inv := cam.ProjectionForRange(near, far).Mul4(cam.View()).Inv()

	var out [8]mgl32.Vec3
	for i := 0; i < 8; i++ {
		ndc := mgl32.Vec4{-1, -1, clip.NearZ(), 1}
		if i&1 != 0 {
			ndc[0] = 1
		}
		if i&2 != 0 {
			ndc[1] = 1
		}
		if i&4 != 0 {
			ndc[2] = clip.FarZ()
		}
		p := inv.Mul4x1(ndc)
		out[i] = p.Vec3().Mul(1.0 / p.W())
	}
	return out
}

// lightUp picks an up vector perpendicular to forward.
func lightUp(forward mgl32.Vec3) mgl32.Vec3 {
	candidates := []mgl32.Vec3{
		forward.Add(mgl32.Vec3{1, 0, -1}),
		{0, 1, 0},
		{0, 0, 1},
	}
	for _, aux := range candidates {
		up := forward.Cross(aux)
		if up.Len() > degenerateEps {
			return up.Normalize()
		}
	}
	// forward is zero; any basis will do
	return mgl32.Vec3{0, 0, 1}
}

func lightExtents(view mgl32.Mat4, corners [8]mgl32.Vec3) Extents {
	box := core.EmptyAABB()
	for _, c := range corners {
		box = box.Extend(view.Mul4x1(c.Vec4(1.0)).Vec3())
	}
	return Extents{
		MinX: box.Min.X(), MaxX: box.Max.X(),
		MinY: box.Min.Y(), MaxY: box.Max.Y(),
		MinZ: box.Min.Z(), MaxZ: box.Max.Z(),
	}
}

// lightVolume is the light-space box [minX,maxX]x[minY,maxY]x[minZ,maxZ]
// expressed in world space.
func lightVolume(view mgl32.Mat4, minX, maxX, minY, maxY, minZ, maxZ float32) core.OBB {
	inv := view.Inv()
	centerLS := mgl32.Vec3{(minX + maxX) / 2, (minY + maxY) / 2, (minZ + maxZ) / 2}
	return core.OBB{
		Center: inv.Mul4x1(centerLS.Vec4(1.0)).Vec3(),
		Axes: [3]mgl32.Vec3{
			inv.Col(0).Vec3().Normalize(),
			inv.Col(1).Vec3().Normalize(),
			inv.Col(2).Vec3().Normalize(),
		},
		HalfExtents: mgl32.Vec3{(maxX - minX) / 2, (maxY - minY) / 2, (maxZ - minZ) / 2},
	}
}
