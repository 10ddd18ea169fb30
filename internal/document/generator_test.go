package document

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testShop() ShopInfo {
	return ShopInfo{
		Name:    "Ace Electronics",
		Address: "12 Jalan Besar",
		Phone:   "03-1234567",
	}
}

func testVoucher() VoucherData {
	return VoucherData{
		VoucherID:    "41000",
		CustomerName: "Nur Aminah",
		ContactNo:    "012-3456789",
		Quantity:     1,
		Particulars:  "Laptop, charger",
		Problem:      "No power",
		ReceivedBy:   "Ravi",
		IssuedAt:     time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestGenerateWritesPDFAtDeterministicPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	gen := NewGenerator(dir, testShop())

	path, err := gen.Generate(testVoucher())
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "voucher_41000.pdf"), path)
	require.Equal(t, gen.Path("41000"), path)

	payload, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotEmpty(t, payload)
	require.True(t, strings.HasPrefix(string(payload[:5]), "%PDF-"))
}

func TestGenerateLeavesNoTempFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	gen := NewGenerator(dir, testShop())

	_, err := gen.Generate(testVoucher())
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "voucher_41000.pdf", entries[0].Name())
}

func TestGenerateCreatesDocumentsDir(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "documents")
	gen := NewGenerator(dir, testShop())

	path, err := gen.Generate(testVoucher())
	require.NoError(t, err)
	require.FileExists(t, path)
}

func TestGenerateRejectsMissingVoucherID(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	gen := NewGenerator(dir, testShop())

	data := testVoucher()
	data.VoucherID = ""
	_, err := gen.Generate(data)
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestGenerateOverwritesExistingDocument(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	gen := NewGenerator(dir, testShop())

	first, err := gen.Generate(testVoucher())
	require.NoError(t, err)

	data := testVoucher()
	data.Problem = "No power, battery swollen"
	second, err := gen.Generate(data)
	require.NoError(t, err)
	require.Equal(t, first, second)

	payload, err := os.ReadFile(second)
	require.NoError(t, err)
	require.NotEmpty(t, payload)
}

func TestWriteFileAtomicFailureLeavesNoFinalFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	// A directory at the target path makes the rename fail.
	target := filepath.Join(dir, "voucher_41000.pdf")
	require.NoError(t, os.Mkdir(target, 0o755))

	err := writeFileAtomic(target, []byte("payload"), 0o644)
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "failed write must not leave temp files behind")
}
