package widget

type FakeMap struct {
	Center     LatLng
	Zoom       int
	Markers    []Marker
	ViewSets   int
	MarkerSets int
}

var _ Map = (*FakeMap)(nil)

func (m *FakeMap) SetView(center LatLng, zoom int) {
	m.Center, m.Zoom = center, zoom
	m.ViewSets++
}

func (m *FakeMap) SetMarkers(markers []Marker) {
	m.Markers = markers
	m.MarkerSets++
}

type FakeChart struct {
	Kind    ChartKind
	Series  Series
	Updates int
}

var _ Chart = (*FakeChart)(nil)

func (c *FakeChart) Update(series Series) {
	c.Series = series
	c.Updates++
}

type FakeQR struct {
	Content string
}

var _ QR = (*FakeQR)(nil)

func (q *FakeQR) SetContent(content string) {
	q.Content = content
}

type Notification struct {
	Level   Level
	Message string
}

// FakeHost records widget creations and notifications; the test double for Host.
type FakeHost struct {
	Maps          map[string]*FakeMap
	Charts        map[string]*FakeChart
	QRs           map[string]*FakeQR
	MapsCreated   int
	ChartsCreated int
	QRsCreated    int
	Notifications []Notification
}

var _ Host = (*FakeHost)(nil)

func NewFakeHost() *FakeHost {
	return &FakeHost{
		Maps:   make(map[string]*FakeMap),
		Charts: make(map[string]*FakeChart),
		QRs:    make(map[string]*FakeQR),
	}
}

func (h *FakeHost) NewMap(containerID string) Map {
	m := &FakeMap{}
	h.Maps[containerID] = m
	h.MapsCreated++
	return m
}

func (h *FakeHost) NewChart(containerID string, kind ChartKind) Chart {
	c := &FakeChart{Kind: kind}
	h.Charts[containerID] = c
	h.ChartsCreated++
	return c
}

func (h *FakeHost) NewQR(containerID string) QR {
	q := &FakeQR{}
	h.QRs[containerID] = q
	h.QRsCreated++
	return q
}

func (h *FakeHost) Notify(lvl Level, message string) {
	h.Notifications = append(h.Notifications, Notification{Level: lvl, Message: message})
}

// LastNotification returns the most recent notification, if any.
func (h *FakeHost) LastNotification() (Notification, bool) {
	if len(h.Notifications) == 0 {
		return Notification{}, false
	}
	return h.Notifications[len(h.Notifications)-1], true
}
