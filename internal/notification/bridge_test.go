package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/praiamar/beach-tent-reservation/internal/model"
)

func TestRejectionMessage(t *testing.T) {
	t.Parallel()

	rejected := []model.ReservationItem{
		{Name: "Cerveja", Quantity: 2},
		{Name: "Agua de coco", Quantity: 1},
	}
	assert.Equal(t, "Items rejected: 2x Cerveja, 1x Agua de coco", RejectionMessage(rejected))
	assert.Equal(t, "Items rejected: ", RejectionMessage(nil))
}
