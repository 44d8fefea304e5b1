package mesh

import (
	"context"
	"iter"
	"log/slog"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/hupe1980/tetgeo/internal/arena"
	"github.com/hupe1980/tetgeo/internal/geom"
)

// Default pool block sizes, in items. A tetrahedral mesh has roughly three
// times more tetrahedra and edges than vertices.
const (
	DefaultVertexBlock = 1200
	DefaultTetBlock    = 3600
	DefaultFaceBlock   = 1200
	DefaultEdgeBlock   = 3600
)

// Mesh owns the four entity pools and every relationship between entities.
//
// A Mesh is not safe for concurrent use, including concurrent reads: positional
// accessors rebuild pool indexes lazily.
type Mesh struct {
	vertices *arena.Pool[Vertex, VertexID]
	edges    *arena.Pool[Edge, EdgeID]
	faces    *arena.Pool[Face, FaceID]
	tets     *arena.Pool[Tet, TetID]

	logger *slog.Logger
}

// Option configures a Mesh.
type Option func(*options)

type options struct {
	logger    *slog.Logger
	blockSize int
	maxBlocks int
	acquirer  arena.MemoryAcquirer

	ctx            context.Context //nolint:containedctx // handed to the pools
	acquireTimeout *time.Duration
}

// WithLogger sets the logger used for phase summaries.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithBlockSize overrides the per-pool block size for all four entity kinds.
func WithBlockSize(n int) Option {
	return func(o *options) {
		o.blockSize = n
	}
}

// WithMaxBlocks caps the number of blocks per pool.
func WithMaxBlocks(n int) Option {
	return func(o *options) {
		o.maxBlocks = n
	}
}

// WithMemoryAcquirer makes every pool reserve its blocks through acq.
func WithMemoryAcquirer(acq arena.MemoryAcquirer) Option {
	return func(o *options) {
		o.acquirer = acq
	}
}

// WithContext sets the context the pools reserve their blocks under.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		o.ctx = ctx
	}
}

// WithAcquireTimeout bounds each block reservation by d instead of
// arena.DefaultAcquireTimeout. A d <= 0 waits for the WithContext context.
func WithAcquireTimeout(d time.Duration) Option {
	return func(o *options) {
		o.acquireTimeout = &d
	}
}

// New returns an empty mesh.
func New(opts ...Option) (*Mesh, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}

	poolOpts := func(defaultBlock int) []arena.Option {
		block := defaultBlock
		if o.blockSize > 0 {
			block = o.blockSize
		}
		out := []arena.Option{arena.WithItemsPerBlock(block), arena.WithAlignment(8, 32)}
		if o.maxBlocks > 0 {
			out = append(out, arena.WithMaxBlocks(o.maxBlocks))
		}
		if o.acquirer != nil {
			out = append(out, arena.WithMemoryAcquirer(o.acquirer))
		}
		if o.ctx != nil {
			out = append(out, arena.WithContext(o.ctx))
		}
		if o.acquireTimeout != nil {
			out = append(out, arena.WithAcquireTimeout(*o.acquireTimeout))
		}
		return out
	}

	m := &Mesh{logger: o.logger}

	var err error
	if m.vertices, err = arena.New[Vertex, VertexID](poolOpts(DefaultVertexBlock)...); err != nil {
		return nil, err
	}
	if m.tets, err = arena.New[Tet, TetID](poolOpts(DefaultTetBlock)...); err != nil {
		m.Close()
		return nil, err
	}
	if m.faces, err = arena.New[Face, FaceID](poolOpts(DefaultFaceBlock)...); err != nil {
		m.Close()
		return nil, err
	}
	if m.edges, err = arena.New[Edge, EdgeID](poolOpts(DefaultEdgeBlock)...); err != nil {
		m.Close()
		return nil, err
	}

	return m, nil
}

// Reset clears the whole graph. Pool blocks are kept for the next load.
func (m *Mesh) Reset() {
	m.vertices.Restart()
	m.edges.Restart()
	m.faces.Restart()
	m.tets.Restart()
}

// Close releases the pools. The mesh cannot be used afterwards.
func (m *Mesh) Close() {
	if m.vertices != nil {
		m.vertices.Close()
	}
	if m.edges != nil {
		m.edges.Close()
	}
	if m.faces != nil {
		m.faces.Close()
	}
	if m.tets != nil {
		m.tets.Close()
	}
}

// Logger returns the mesh logger.
func (m *Mesh) Logger() *slog.Logger { return m.logger }

// Vertex returns the vertex behind id, or nil.
func (m *Mesh) Vertex(id VertexID) *Vertex { return m.vertices.Get(id) }

// Edge returns the edge behind id, or nil.
func (m *Mesh) Edge(id EdgeID) *Edge { return m.edges.Get(id) }

// Face returns the face behind id, or nil.
func (m *Mesh) Face(id FaceID) *Face { return m.faces.Get(id) }

// Tet returns the tetrahedron behind id, or nil.
func (m *Mesh) Tet(id TetID) *Tet { return m.tets.Get(id) }

// NumVertices returns the number of live vertices.
func (m *Mesh) NumVertices() int { return m.vertices.Len() }

// NumEdges returns the number of live edges.
func (m *Mesh) NumEdges() int { return m.edges.Len() }

// NumFaces returns the number of live faces, boundary and interior.
func (m *Mesh) NumFaces() int { return m.faces.Len() }

// NumTets returns the number of live tetrahedra. It is zero for surface meshes.
func (m *Mesh) NumTets() int { return m.tets.Len() }

// VertexAt returns the i-th vertex in pool order.
func (m *Mesh) VertexAt(i int) VertexID { return m.vertices.At(i) }

// EdgeAt returns the i-th edge in pool order.
func (m *Mesh) EdgeAt(i int) EdgeID { return m.edges.At(i) }

// FaceAt returns the i-th face in pool order.
func (m *Mesh) FaceAt(i int) FaceID { return m.faces.At(i) }

// TetAt returns the i-th tetrahedron in pool order.
func (m *Mesh) TetAt(i int) TetID { return m.tets.At(i) }

// Vertices iterates all vertices in pool order.
func (m *Mesh) Vertices() iter.Seq2[VertexID, *Vertex] { return m.vertices.All() }

// Edges iterates all edges in pool order.
func (m *Mesh) Edges() iter.Seq2[EdgeID, *Edge] { return m.edges.All() }

// Faces iterates all faces in pool order.
func (m *Mesh) Faces() iter.Seq2[FaceID, *Face] { return m.faces.All() }

// Tets iterates all tetrahedra in pool order.
func (m *Mesh) Tets() iter.Seq2[TetID, *Tet] { return m.tets.All() }

// BoundaryFaces iterates the skin faces in pool order.
func (m *Mesh) BoundaryFaces() iter.Seq2[FaceID, *Face] {
	return func(yield func(FaceID, *Face) bool) {
		for id, f := range m.faces.All() {
			if f.boundary && !yield(id, f) {
				return
			}
		}
	}
}

// Position returns the position of v.
func (m *Mesh) Position(v VertexID) r3.Vec {
	return m.vertices.Get(v).Position
}

// FaceCorners returns the corner positions of f in winding order.
func (m *Mesh) FaceCorners(f FaceID) [3]r3.Vec {
	face := m.faces.Get(f)
	return [3]r3.Vec{
		m.Position(face.verts[0]),
		m.Position(face.verts[1]),
		m.Position(face.verts[2]),
	}
}

// FaceNormal returns the left-hand unit normal of f.
func (m *Mesh) FaceNormal(f FaceID) r3.Vec {
	c := m.FaceCorners(f)
	return geom.Normal(c[0], c[1], c[2])
}

// Centroid returns the mean of all vertex positions.
func (m *Mesh) Centroid() r3.Vec {
	n := m.vertices.Len()
	if n == 0 {
		return r3.Vec{}
	}
	var sum r3.Vec
	for _, v := range m.vertices.All() {
		sum = r3.Add(sum, v.Position)
	}
	return r3.Scale(1/float64(n), sum)
}

// ClearMarks resets the Mark and Visited flags of every face.
func (m *Mesh) ClearMarks() {
	for _, f := range m.faces.All() {
		f.Mark = false
		f.Visited = false
	}
}

func (m *Mesh) newVertex(pos r3.Vec) (VertexID, error) {
	id, v, err := m.vertices.Alloc()
	if err != nil {
		return 0, err
	}
	*v = Vertex{
		Position: pos,
		Index:    m.vertices.Len() - 1,
		tets:     v.tets[:0],
		edges:    v.edges[:0],
	}
	return id, nil
}

func (m *Mesh) newEdge(a, b VertexID) (EdgeID, error) {
	id, e, err := m.edges.Alloc()
	if err != nil {
		return 0, err
	}
	*e = Edge{
		ends:  [2]VertexID{a, b},
		faces: e.faces[:0],
	}

	va, vb := m.vertices.Get(a), m.vertices.Get(b)
	va.edges = append(va.edges, id)
	vb.edges = append(vb.edges, id)
	return id, nil
}

func (m *Mesh) newFace(a, b, c VertexID) (FaceID, error) {
	id, f, err := m.faces.Alloc()
	if err != nil {
		return 0, err
	}
	*f = Face{
		verts:    [3]VertexID{a, b, c},
		boundary: true,
	}
	return id, nil
}

func (m *Mesh) newTet(a, b, c, d VertexID) (TetID, error) {
	id, t, err := m.tets.Alloc()
	if err != nil {
		return 0, err
	}
	*t = Tet{
		verts: [4]VertexID{a, b, c, d},
		Index: m.tets.Len() - 1,
	}

	for _, v := range t.verts {
		vtx := m.vertices.Get(v)
		vtx.tets = append(vtx.tets, id)
	}
	return id, nil
}

// findEdge scans the incident-edge lists of a and b for an edge joining them.
func (m *Mesh) findEdge(a, b VertexID) EdgeID {
	for _, id := range m.vertices.Get(a).edges {
		if m.edges.Get(id).Connects(a, b) {
			return id
		}
	}
	for _, id := range m.vertices.Get(b).edges {
		if m.edges.Get(id).Connects(a, b) {
			return id
		}
	}
	return 0
}

// connectFaceEdges finds or creates the three edges of f and registers f on them.
func (m *Mesh) connectFaceEdges(id FaceID) error {
	f := m.faces.Get(id)
	for k := range 3 {
		a, b := f.verts[(k+1)%3], f.verts[(k+2)%3]

		e := m.findEdge(a, b)
		if e == 0 {
			var err error
			if e, err = m.newEdge(a, b); err != nil {
				return err
			}
		}

		edge := m.edges.Get(e)
		edge.faces = append(edge.faces, id)
		f.edges[k] = e
	}
	return nil
}
