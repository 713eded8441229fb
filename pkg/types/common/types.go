// Package common holds the primitive wire types shared by every layer of
// PlanLens-Compare and by the remote comparison service's JSON API.
package common

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// ID is a string alias for an opaque entity identifier.  IDs minted by this
// service are UUID v4; IDs received from the remote service are passed
// through untouched.
type ID string

// UserID is a string alias for an identity reference (e.g. a change
// assignee).  Identity management itself lives in the remote service.
type UserID string

// ProjectID is a string alias for a project identifier.
type ProjectID string

// NewID mints a fresh UUID-v4-backed ID.
func NewID() ID {
	return ID(uuid.NewString())
}

// Point is a 2D coordinate in normalized drawing space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Rect is an axis-aligned rectangle in normalized drawing space.
//
// The normalized scale is ambiguous at the wire level: depending on which
// upstream emitted it the coordinates are either in [0,1] or in [0,1000].
// Nothing in this package resolves the ambiguity; pkg/geometry is the single
// place that does, by inspection.
type Rect struct {
	XMin float64 `json:"xmin"`
	YMin float64 `json:"ymin"`
	XMax float64 `json:"xmax"`
	YMax float64 `json:"ymax"`
}

// Center returns the centroid of the rectangle.  Degenerate rectangles
// (min > max) are not rejected; the centroid formula is indifferent to them.
func (r Rect) Center() Point {
	return Point{X: (r.XMin + r.XMax) / 2, Y: (r.YMin + r.YMax) / 2}
}

// String implements fmt.Stringer for log output.
func (r Rect) String() string {
	return fmt.Sprintf("[%g,%g..%g,%g]", r.XMin, r.YMin, r.XMax, r.YMax)
}

// Pagination defines parameters for paginated list requests.
type Pagination struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total,omitempty"`
}

// Timestamped carries audit metadata on wire DTOs.
type Timestamped struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
