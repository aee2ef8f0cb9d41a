package scene

// Prim container schema type. Auto lets the emitter pick based on the node
// role (Xform for fragment-backed prims, Scope for pure grouping).
// ENUM(auto, xform, scope)
type GeomType int

// Coarse model classification authored on a prim.
// ENUM(none, assembly, group, component, subcomponent, model)
type Kind int

// Rendering-role classification used by consumers to selectively load
// content.
// ENUM(default, render, proxy, guide)
type Purpose int

// Stand-in representation used when a model is not fully loaded.
// ENUM(default, bounds, origin, cards)
type DrawMode int
