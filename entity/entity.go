package entity

// Interface is implemented by every stored entity through Base.
type Interface interface {
	GetID() string
	SetExists(v bool)
	Exists() bool
}

// Base carries the identity and store presence of an entity. A freshly
// constructed entity does not exist until the store has seen it.
type Base struct {
	ID string `json:"id"`

	exists bool
}

func NewBase(id string) Base {
	return Base{ID: id}
}

func (b *Base) GetID() string { return b.ID }

func (b *Base) SetExists(v bool) { b.exists = v }

func (b *Base) Exists() bool { return b.exists }
