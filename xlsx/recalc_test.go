package xlsx

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/officekit/office"
	"github.com/tsawler/officekit/office/officetest"
)

// fakeRecalc emulates soffice: the macro run rewrites the workbook with
// errorSheets, as if recalculation surfaced the errors.
func fakeRecalc(t *testing.T) *officetest.Executor {
	return officetest.NewExecutor().Handle("soffice", func(_ context.Context, _ string, args []string, _, _ io.Writer) error {
		if !slices.Contains(args, office.MacroRecalculate) {
			return nil
		}
		writeTestXLSX(t, args[len(args)-1], errorSheets(), nil)
		return nil
	})
}

func TestRecalculateInPlace(t *testing.T) {
	path := createTestXLSX(t, basicSheets(), []string{"Region", "Units"})
	fx := fakeRecalc(t)
	profile := filepath.Join(t.TempDir(), "profile")

	rep, err := Recalculate(context.Background(), path, RecalcConfig{
		Runner:     fx.Runner(),
		ProfileDir: profile,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusErrorsFound, rep.Status)
	assert.Equal(t, 29, rep.TotalErrors)

	_, err = os.Stat(filepath.Join(profile, "user", "basic", "Standard", "Module1.xba"))
	require.NoError(t, err, "macro should be installed")

	calls := fx.Calls()
	require.Len(t, calls, 2, "profile init then macro run")
	last := calls[1]
	abs, _ := filepath.Abs(path)
	assert.Equal(t, abs, last[len(last)-1])
	assert.Contains(t, last, "--headless")
}

func TestRecalculateToOutput(t *testing.T) {
	path := createTestXLSX(t, basicSheets(), []string{"Region", "Units"})
	out := filepath.Join(t.TempDir(), "out", "recalc.xlsx")

	rep, err := Recalculate(context.Background(), path, RecalcConfig{
		Runner:     fakeRecalc(t).Runner(),
		ProfileDir: filepath.Join(t.TempDir(), "profile"),
		Output:     out,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusErrorsFound, rep.Status)

	// The input still scans clean.
	orig, err := Scan(path, ScanOptions{})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, orig.Status)
}

func TestRecalculateMissingSoffice(t *testing.T) {
	path := createTestXLSX(t, basicSheets(), nil)
	fx := officetest.NewExecutor()
	fx.Installed = map[string]bool{}

	_, err := Recalculate(context.Background(), path, RecalcConfig{
		Runner:     fx.Runner(),
		ProfileDir: filepath.Join(t.TempDir(), "profile"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, office.ErrToolNotFound))
}

func TestRecalculateTimeout(t *testing.T) {
	path := createTestXLSX(t, basicSheets(), nil)
	fx := officetest.NewExecutor().Handle("soffice", func(ctx context.Context, _ string, args []string, _, _ io.Writer) error {
		if !slices.Contains(args, office.MacroRecalculate) {
			return nil
		}
		<-ctx.Done()
		return ctx.Err()
	})

	_, err := Recalculate(context.Background(), path, RecalcConfig{
		Runner:     fx.Runner(),
		ProfileDir: filepath.Join(t.TempDir(), "profile"),
		Timeout:    20 * time.Millisecond,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, office.ErrTimeout))
}

func TestRecalculateRejectsNonWorkbook(t *testing.T) {
	p := filepath.Join(t.TempDir(), "notes.xlsx")
	require.NoError(t, os.WriteFile(p, []byte("plain"), 0o644))
	fx := officetest.NewExecutor()

	_, err := Recalculate(context.Background(), p, RecalcConfig{
		Runner:     fx.Runner(),
		ProfileDir: t.TempDir(),
	})
	assert.True(t, errors.Is(err, ErrNotWorkbook))
	assert.Empty(t, fx.Calls())
}
