// Package pipeline runs frames through the screening stages: thermal
// reference detection, region extraction and classification, face
// reconstruction and the screening state machine.
//
// This package is the composition root. It imports the stage packages
// (thermalref, shape, regions, face, screening) and none of them import
// pipeline/. All state carried between frames lives in a SessionState that
// the caller owns and threads through ProcessFrame.
package pipeline
