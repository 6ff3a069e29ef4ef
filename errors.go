package quadtree

import (
	"github.com/pingcap/errors"
)

// tree errors
var (
	ErrOutOfBoundary = errors.Normalize("point %v is outside boundary %v", errors.RFCCodeText("QT:tree:ErrOutOfBoundary"))
	ErrNoQuadrant    = errors.Normalize("no quadrant of %v accepted point %v", errors.RFCCodeText("QT:tree:ErrNoQuadrant"))
	ErrUnknownKind   = errors.Normalize("unknown quadtree kind %v", errors.RFCCodeText("QT:tree:ErrUnknownKind"))
)
