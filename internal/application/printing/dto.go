package printing

import "time"

// ContractDocument locates a generated lease contract
type ContractDocument struct {
	RoomNumber  string        `json:"room_number"`
	Key         string        `json:"key"`
	URL         string        `json:"url"`
	PageCount   int           `json:"page_count"`
	Size        int           `json:"size"`
	RenderTime  time.Duration `json:"-"`
	GeneratedAt time.Time     `json:"generated_at"`
	Data        []byte        `json:"-"`
}
