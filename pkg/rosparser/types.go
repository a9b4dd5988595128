package rosparser

// ROS 2 message type names
const (
	TypeJoy                       = "sensor_msgs/msg/Joy"
	TypePoseWithCovarianceStamped = "geometry_msgs/msg/PoseWithCovarianceStamped"
	TypeTwist                     = "geometry_msgs/msg/Twist"
	TypeMarker                    = "visualization_msgs/msg/Marker"
)

// visualization_msgs/msg/Marker constants used by the recorder
const (
	MarkerArrow     int32 = 0
	MarkerActionAdd int32 = 0
)

// Time mirrors builtin_interfaces/msg/Time.
type Time struct {
	Sec     int32  `json:"sec"`
	Nanosec uint32 `json:"nanosec"`
}

// Duration mirrors builtin_interfaces/msg/Duration.
type Duration struct {
	Sec     int32  `json:"sec"`
	Nanosec uint32 `json:"nanosec"`
}

// Header mirrors std_msgs/msg/Header.
type Header struct {
	Stamp   Time   `json:"stamp"`
	FrameID string `json:"frame_id"`
}

// Vector3 defines a standard 3D vector.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Point mirrors geometry_msgs/msg/Point.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Quaternion mirrors geometry_msgs/msg/Quaternion.
type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// Pose mirrors geometry_msgs/msg/Pose.
type Pose struct {
	Position    Point      `json:"position"`
	Orientation Quaternion `json:"orientation"`
}

// PoseWithCovariance mirrors geometry_msgs/msg/PoseWithCovariance.
type PoseWithCovariance struct {
	Pose       Pose        `json:"pose"`
	Covariance [36]float64 `json:"covariance"`
}

// PoseWithCovarianceStamped is what AMCL publishes on /amcl_pose.
type PoseWithCovarianceStamped struct {
	Header Header             `json:"header"`
	Pose   PoseWithCovariance `json:"pose"`
}

// Joy mirrors sensor_msgs/msg/Joy.
type Joy struct {
	Header  Header    `json:"header"`
	Axes    []float32 `json:"axes"`
	Buttons []int32   `json:"buttons"`
}

// Twist represents a command velocity message, matching geometry_msgs/Twist.
type Twist struct {
	Linear  Vector3 `json:"linear"`
	Angular Vector3 `json:"angular"`
}

// ColorRGBA mirrors std_msgs/msg/ColorRGBA.
type ColorRGBA struct {
	R float32 `json:"r"`
	G float32 `json:"g"`
	B float32 `json:"b"`
	A float32 `json:"a"`
}

// CompressedImage mirrors sensor_msgs/msg/CompressedImage (marker textures).
type CompressedImage struct {
	Header Header `json:"header"`
	Format string `json:"format"`
	Data   []byte `json:"data"`
}

// UVCoordinate mirrors visualization_msgs/msg/UVCoordinate.
type UVCoordinate struct {
	U float32 `json:"u"`
	V float32 `json:"v"`
}

// MeshFile mirrors visualization_msgs/msg/MeshFile.
type MeshFile struct {
	Filename string `json:"filename"`
	Data     []byte `json:"data"`
}

// Marker mirrors visualization_msgs/msg/Marker (Humble field layout).
type Marker struct {
	Header                   Header          `json:"header"`
	Ns                       string          `json:"ns"`
	ID                       int32           `json:"id"`
	Type                     int32           `json:"type"`
	Action                   int32           `json:"action"`
	Pose                     Pose            `json:"pose"`
	Scale                    Vector3         `json:"scale"`
	Color                    ColorRGBA       `json:"color"`
	Lifetime                 Duration        `json:"lifetime"`
	FrameLocked              bool            `json:"frame_locked"`
	Points                   []Point         `json:"points"`
	Colors                   []ColorRGBA     `json:"colors"`
	TextureResource          string          `json:"texture_resource"`
	Texture                  CompressedImage `json:"texture"`
	UVCoordinates            []UVCoordinate  `json:"uv_coordinates"`
	Text                     string          `json:"text"`
	MeshResource             string          `json:"mesh_resource"`
	MeshFile                 MeshFile        `json:"mesh_file"`
	MeshUseEmbeddedMaterials bool            `json:"mesh_use_embedded_materials"`
}

func (*Joy) TypeName() string                       { return TypeJoy }
func (*PoseWithCovarianceStamped) TypeName() string { return TypePoseWithCovarianceStamped }
func (*Twist) TypeName() string                     { return TypeTwist }
func (*Marker) TypeName() string                    { return TypeMarker }

// --- CDR field helpers ---

func (t *Time) encode(w *cdrWriter) {
	w.writeInt32(t.Sec)
	w.writeUint32(t.Nanosec)
}

func (t *Time) decode(r *cdrReader) {
	t.Sec = r.readInt32()
	t.Nanosec = r.readUint32()
}

func (h *Header) encode(w *cdrWriter) {
	h.Stamp.encode(w)
	w.writeString(h.FrameID)
}

func (h *Header) decode(r *cdrReader) {
	h.Stamp.decode(r)
	h.FrameID = r.readString()
}

func (v *Vector3) encode(w *cdrWriter) {
	w.writeFloat64(v.X)
	w.writeFloat64(v.Y)
	w.writeFloat64(v.Z)
}

func (v *Vector3) decode(r *cdrReader) {
	v.X = r.readFloat64()
	v.Y = r.readFloat64()
	v.Z = r.readFloat64()
}

func (p *Point) encode(w *cdrWriter) {
	w.writeFloat64(p.X)
	w.writeFloat64(p.Y)
	w.writeFloat64(p.Z)
}

func (p *Point) decode(r *cdrReader) {
	p.X = r.readFloat64()
	p.Y = r.readFloat64()
	p.Z = r.readFloat64()
}

func (p *Pose) encode(w *cdrWriter) {
	p.Position.encode(w)
	w.writeFloat64(p.Orientation.X)
	w.writeFloat64(p.Orientation.Y)
	w.writeFloat64(p.Orientation.Z)
	w.writeFloat64(p.Orientation.W)
}

func (p *Pose) decode(r *cdrReader) {
	p.Position.decode(r)
	p.Orientation.X = r.readFloat64()
	p.Orientation.Y = r.readFloat64()
	p.Orientation.Z = r.readFloat64()
	p.Orientation.W = r.readFloat64()
}

func (c *ColorRGBA) encode(w *cdrWriter) {
	w.writeFloat32(c.R)
	w.writeFloat32(c.G)
	w.writeFloat32(c.B)
	w.writeFloat32(c.A)
}

func (c *ColorRGBA) decode(r *cdrReader) {
	c.R = r.readFloat32()
	c.G = r.readFloat32()
	c.B = r.readFloat32()
	c.A = r.readFloat32()
}

// --- Messages ---

func (m *Joy) encodeCDR(w *cdrWriter) {
	m.Header.encode(w)
	w.writeUint32(uint32(len(m.Axes)))
	for _, a := range m.Axes {
		w.writeFloat32(a)
	}
	w.writeUint32(uint32(len(m.Buttons)))
	for _, b := range m.Buttons {
		w.writeInt32(b)
	}
}

func (m *Joy) decodeCDR(r *cdrReader) error {
	m.Header.decode(r)
	if n := r.readLength(); n > 0 {
		m.Axes = make([]float32, 0, n)
		for i := 0; i < n && r.Err() == nil; i++ {
			m.Axes = append(m.Axes, r.readFloat32())
		}
	}
	if n := r.readLength(); n > 0 {
		m.Buttons = make([]int32, 0, n)
		for i := 0; i < n && r.Err() == nil; i++ {
			m.Buttons = append(m.Buttons, r.readInt32())
		}
	}
	return r.Err()
}

func (m *PoseWithCovarianceStamped) encodeCDR(w *cdrWriter) {
	m.Header.encode(w)
	m.Pose.Pose.encode(w)
	for _, c := range m.Pose.Covariance {
		w.writeFloat64(c)
	}
}

func (m *PoseWithCovarianceStamped) decodeCDR(r *cdrReader) error {
	m.Header.decode(r)
	m.Pose.Pose.decode(r)
	for i := range m.Pose.Covariance {
		m.Pose.Covariance[i] = r.readFloat64()
	}
	return r.Err()
}

func (m *Twist) encodeCDR(w *cdrWriter) {
	m.Linear.encode(w)
	m.Angular.encode(w)
}

func (m *Twist) decodeCDR(r *cdrReader) error {
	m.Linear.decode(r)
	m.Angular.decode(r)
	return r.Err()
}

func (m *Marker) encodeCDR(w *cdrWriter) {
	m.Header.encode(w)
	w.writeString(m.Ns)
	w.writeInt32(m.ID)
	w.writeInt32(m.Type)
	w.writeInt32(m.Action)
	m.Pose.encode(w)
	m.Scale.encode(w)
	m.Color.encode(w)
	w.writeInt32(m.Lifetime.Sec)
	w.writeUint32(m.Lifetime.Nanosec)
	w.writeBool(m.FrameLocked)
	w.writeUint32(uint32(len(m.Points)))
	for i := range m.Points {
		m.Points[i].encode(w)
	}
	w.writeUint32(uint32(len(m.Colors)))
	for i := range m.Colors {
		m.Colors[i].encode(w)
	}
	w.writeString(m.TextureResource)
	m.Texture.Header.encode(w)
	w.writeString(m.Texture.Format)
	w.writeBytes(m.Texture.Data)
	w.writeUint32(uint32(len(m.UVCoordinates)))
	for _, uv := range m.UVCoordinates {
		w.writeFloat32(uv.U)
		w.writeFloat32(uv.V)
	}
	w.writeString(m.Text)
	w.writeString(m.MeshResource)
	w.writeString(m.MeshFile.Filename)
	w.writeBytes(m.MeshFile.Data)
	w.writeBool(m.MeshUseEmbeddedMaterials)
}

func (m *Marker) decodeCDR(r *cdrReader) error {
	m.Header.decode(r)
	m.Ns = r.readString()
	m.ID = r.readInt32()
	m.Type = r.readInt32()
	m.Action = r.readInt32()
	m.Pose.decode(r)
	m.Scale.decode(r)
	m.Color.decode(r)
	m.Lifetime.Sec = r.readInt32()
	m.Lifetime.Nanosec = r.readUint32()
	m.FrameLocked = r.readBool()
	if n := r.readLength(); n > 0 {
		m.Points = make([]Point, n)
		for i := 0; i < n && r.Err() == nil; i++ {
			m.Points[i].decode(r)
		}
	}
	if n := r.readLength(); n > 0 {
		m.Colors = make([]ColorRGBA, n)
		for i := 0; i < n && r.Err() == nil; i++ {
			m.Colors[i].decode(r)
		}
	}
	m.TextureResource = r.readString()
	m.Texture.Header.decode(r)
	m.Texture.Format = r.readString()
	m.Texture.Data = r.readBytes()
	if n := r.readLength(); n > 0 {
		m.UVCoordinates = make([]UVCoordinate, n)
		for i := 0; i < n && r.Err() == nil; i++ {
			m.UVCoordinates[i] = UVCoordinate{U: r.readFloat32(), V: r.readFloat32()}
		}
	}
	m.Text = r.readString()
	m.MeshResource = r.readString()
	m.MeshFile.Filename = r.readString()
	m.MeshFile.Data = r.readBytes()
	m.MeshUseEmbeddedMaterials = r.readBool()
	return r.Err()
}
