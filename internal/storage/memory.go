package storage

// Memory keeps the vault document in process memory.
// SaveErr, when set, is returned by Save without touching the stored data.
type Memory struct {
	data    []byte
	saves   int
	SaveErr error
}

// NewMemory returns an empty in-memory backend
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Path() string {
	return ":memory:"
}

func (m *Memory) Exists() (bool, error) {
	return m.data != nil, nil
}

func (m *Memory) Load() ([]byte, error) {
	if m.data == nil {
		return nil, ErrNotExist
	}
	return append([]byte(nil), m.data...), nil
}

func (m *Memory) Save(data []byte) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.data = append([]byte(nil), data...)
	m.saves++
	return nil
}

// Saves returns the number of successful Save calls
func (m *Memory) Saves() int {
	return m.saves
}

func (m *Memory) Close() error {
	return nil
}
