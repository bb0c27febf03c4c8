// Package thermal is the root of the thermal screening analysis stack.
//
// The stack is layered; lower layers never import higher ones:
//
//	geom        robust orientation predicate, vectors, polygons, convex hull
//	frame       radiometric frames, mask bits, frame stream codec
//	shape       spans, shapes, connected-region extraction, shape algebra
//	regions     body candidate filtering and glasses-split head merging
//	thermalref  calibration disk (thermal reference) detection and persistence
//	face        neck location, ray-marched face geometry, forehead sampling
//	screening   screening state machine and acceptance table
//	pipeline    per-session composition root (SessionState, ProcessFrame)
//
// No package below pipeline holds mutable state across frames; everything
// carried between frames lives in pipeline.SessionState.
package thermal
