// Package widget defines the adapters through which the dashboard drives its
// host widgets (maps, charts, QR codes, toasts). The host library owns the
// actual rendering; the dashboard only pushes data through these interfaces.
package widget

type LatLng struct {
	Lat float64
	Lng float64
}

// Marker describes one point on a map widget.
type Marker struct {
	Pos    LatLng
	Label  string
	Detail string // popup body
}

// Map is a live map instance bound to one container.
type Map interface {
	SetView(center LatLng, zoom int)
	SetMarkers(markers []Marker)
}

type ChartKind string

const (
	ChartBar      ChartKind = "bar"
	ChartLine     ChartKind = "line"
	ChartDoughnut ChartKind = "doughnut"
)

// Series is a labeled numeric series for a chart widget.
type Series struct {
	Labels []string
	Data   []float64
}

// Chart is a live chart instance bound to one container.
type Chart interface {
	Update(series Series)
}

// QR is a live QR-code instance bound to one container.
type QR interface {
	SetContent(content string)
}

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

type Notifier interface {
	Notify(lvl Level, message string)
}

// Host creates widget instances. Instances are expected to be created at most
// once per container and reused; only their data gets refreshed.
type Host interface {
	Notifier
	NewMap(containerID string) Map
	NewChart(containerID string, kind ChartKind) Chart
	NewQR(containerID string) QR
}
