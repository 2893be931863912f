package shaders

import (
	_ "embed"
)

//go:embed shadow_depth.wgsl
var ShadowDepthWGSL string

//go:embed foliage_depth.wgsl
var FoliageDepthWGSL string

//go:embed lit.wgsl
var LitWGSL string

//go:embed gizmo.wgsl
var GizmoWGSL string

//go:embed text.wgsl
var TextWGSL string

// GLSL 4.10 sources for the OpenGL backend.

//go:embed glsl/shadow_depth.vert
var ShadowDepthVert string

//go:embed glsl/foliage_depth.vert
var FoliageDepthVert string

//go:embed glsl/depth.frag
var DepthFrag string

//go:embed glsl/lit.vert
var LitVert string

//go:embed glsl/lit_foliage.vert
var LitFoliageVert string

//go:embed glsl/lit.frag
var LitFrag string
