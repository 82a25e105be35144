package xlsxGenerator

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ivgord/stockfolio/internal/model"
)

func TestGenerate(t *testing.T) {
	portfolio := model.Portfolio{
		Name:     "tech",
		DataType: model.Interday,
	}

	day := time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC)
	set := model.SeriesSet{
		"AAPL": {
			Ticker:   "AAPL",
			Currency: "USD",
			Candles: []model.Candle{
				{
					Timestamp: day,
					Open:      decimal.NewFromFloat(190.5),
					High:      decimal.NewFromFloat(192.0),
					Low:       decimal.NewFromFloat(189.9),
					Close:     decimal.NewFromFloat(191.3),
					AdjClose:  decimal.NewFromFloat(191.3),
					Volume:    1000,
				},
			},
		},
		"MSFT": {
			Ticker:   "MSFT",
			Currency: "USD",
			Candles: []model.Candle{
				{
					Timestamp: day,
					Open:      decimal.NewFromFloat(370.1),
					High:      decimal.NewFromFloat(371.0),
					Low:       decimal.NewFromFloat(369.5),
					Close:     decimal.NewFromFloat(370.8),
					AdjClose:  decimal.NewFromFloat(370.8),
					Volume:    2000,
				},
			},
		},
	}

	fileBytes, ext, err := New().Generate(context.Background(), portfolio, set)
	require.NoError(t, err)
	assert.Equal(t, ".xlsx", ext)

	f, err := excelize.OpenReader(bytes.NewReader(fileBytes))
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"AAPL", "MSFT"}, f.GetSheetList())

	header, err := f.GetCellValue("AAPL", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Timestamp", header)

	ts, err := f.GetCellValue("AAPL", "A2")
	require.NoError(t, err)
	assert.Equal(t, "2023-11-01", ts)

	closeVal, err := f.GetCellValue("AAPL", "E2")
	require.NoError(t, err)
	assert.Equal(t, "191.3", closeVal)
}

func TestGenerateEmptySet(t *testing.T) {
	_, _, err := New().Generate(context.Background(), model.Portfolio{Name: "empty"}, model.SeriesSet{})
	assert.Error(t, err)
}

func TestGenerateIntradayTimestampFormat(t *testing.T) {
	portfolio := model.Portfolio{Name: "day", DataType: model.Intraday}

	ts := time.Date(2023, 11, 1, 14, 30, 0, 0, time.UTC)
	set := model.SeriesSet{
		"TSLA": {
			Ticker: "TSLA",
			Candles: []model.Candle{
				{Timestamp: ts, Open: decimal.NewFromInt(200), High: decimal.NewFromInt(201), Low: decimal.NewFromInt(199), Close: decimal.NewFromInt(200), AdjClose: decimal.NewFromInt(200)},
			},
		},
	}

	fileBytes, _, err := New().Generate(context.Background(), portfolio, set)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(fileBytes))
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetCellValue("TSLA", "A2")
	require.NoError(t, err)
	assert.Equal(t, "2023-11-01 14:30:00", got)
}
