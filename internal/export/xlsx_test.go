package export

import (
	"bytes"
	"testing"
	"time"

	"esferas/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteBookingsXLSX(t *testing.T) {
	bookings := []*models.Booking{
		{
			ID:            "b-1",
			Date:          time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
			Name:          "Bob",
			Email:         "b@x.com",
			Phone:         "555",
			PaymentOption: models.PaymentLocal,
			CreatedAt:     time.Date(2024, 4, 20, 8, 30, 0, 0, time.UTC),
		},
		{
			ID:            "b-2",
			Date:          time.Date(2024, 5, 2, 15, 30, 0, 0, time.UTC),
			Name:          "Ana",
			Email:         "a@x.com",
			Notes:         "tarde",
			PaymentOption: models.PaymentRemote,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteBookingsXLSX(&buf, bookings))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, headers, rows[0])
	assert.Equal(t, []string{"b-1", "01.05.2024", "10:00", "Bob", "b@x.com", "555", "", "En persona", "2024-04-20T08:30:00Z"}, rows[1])
	assert.Equal(t, "Ana", rows[2][3])
	assert.Equal(t, "tarde", rows[2][6])
	assert.Equal(t, "MercadoPago", rows[2][7])
}

func TestWriteBookingsXLSX_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBookingsXLSX(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}
