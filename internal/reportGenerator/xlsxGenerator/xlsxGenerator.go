package xlsxGenerator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ivgord/stockfolio/internal/model"
	"github.com/ivgord/stockfolio/utils"
)

type XLSXGenerator struct{}

func New() *XLSXGenerator {
	return &XLSXGenerator{}
}

// Generate writes one sheet per ticker with the fetched OHLCV series.
func (g *XLSXGenerator) Generate(ctx context.Context, portfolio model.Portfolio, set model.SeriesSet) (fileBytes []byte, fileExtension string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "XLSXGenerator.Generate"

	if len(set) == 0 {
		return nil, "", errors.New("empty series set")
	}

	slog.Debug("Generate start", slog.String("rqID", rqID), slog.String("op", op))

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("got error while closing file", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
	}()

	tickers := make([]string, 0, len(set))
	for ticker := range set {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	for _, ticker := range tickers {
		if err := g.fillSheet(f, portfolio, set[ticker]); err != nil {
			slog.Error("got error while filling sheet", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
			return nil, "", err
		}
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		slog.Error("got error while deleting Sheet1", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		slog.Error("got error while saving file to bytes buffer", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	slog.Debug("Generate completed", slog.String("rqID", rqID), slog.String("op", op))

	return buf.Bytes(), ".xlsx", nil
}

func (g *XLSXGenerator) fillSheet(f *excelize.File, portfolio model.Portfolio, series model.Series) error {
	sheetName := series.Ticker
	if _, err := f.NewSheet(sheetName); err != nil {
		return err
	}

	header := []any{"Timestamp", "Open", "High", "Low", "Close", "Adj Close", "Volume"}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return err
	}

	styleID, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", "G1", styleID); err != nil {
		return err
	}

	tsFormat := time.DateOnly
	if portfolio.DataType == model.Intraday {
		tsFormat = time.DateTime
	}

	for i, candle := range series.Candles {
		row := []any{
			candle.Timestamp.Format(tsFormat),
			candle.Open.InexactFloat64(),
			candle.High.InexactFloat64(),
			candle.Low.InexactFloat64(),
			candle.Close.InexactFloat64(),
			candle.AdjClose.InexactFloat64(),
			candle.Volume,
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return err
		}
	}

	return nil
}
