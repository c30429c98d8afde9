package services

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chai2010/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qisa/database"
	"qisa/utils"
)

func newFileService(t *testing.T) *FileService {
	t.Helper()
	return NewFileService(newTestDB(t), t.TempDir(), 1)
}

// pngBytes gera um PNG real nas dimensões pedidas
func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestSaveClassificaEGravaArquivoDeTexto(t *testing.T) {
	svc := newFileService(t)

	att, err := svc.Save("notas.txt", "text/plain", []byte("olá, mundo"))
	require.NoError(t, err)

	assert.Equal(t, database.FileTypeOther, att.Type)
	assert.Equal(t, "notas.txt", att.OriginalName)
	assert.Equal(t, "/api/files/"+att.ID, att.URL)
	assert.Equal(t, "olá, mundo", att.ExtractedText)
	assert.True(t, strings.HasSuffix(att.Filename, ".txt"))
	assert.True(t, utils.FileExists(svc.Path(att.Filename)))
}

func TestSaveRejeitaArquivoGrandeDemais(t *testing.T) {
	svc := newFileService(t) // limite de 1 MB

	big := make([]byte, 2*1024*1024)
	_, err := svc.Save("grande.bin", "application/octet-stream", big)
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestSaveGeraDerivadoWebPDeImagem(t *testing.T) {
	svc := newFileService(t)

	att, err := svc.Save("foto.png", "image/png", pngBytes(t, 64, 48))
	require.NoError(t, err)

	assert.Equal(t, database.FileTypeImage, att.Type)
	require.NotEmpty(t, att.ProcessedPath)
	assert.True(t, strings.HasSuffix(att.ProcessedPath, ".webp"))
	assert.True(t, utils.FileExists(att.ProcessedPath))
}

func TestDerivadoRespeitaOLadoMaximo(t *testing.T) {
	svc := newFileService(t)

	// Mais largo que o limite do derivado
	att, err := svc.Save("panorama.png", "image/png", pngBytes(t, maxDerivativeSize+200, 100))
	require.NoError(t, err)
	require.NotEmpty(t, att.ProcessedPath)

	data, err := os.ReadFile(att.ProcessedPath)
	require.NoError(t, err)

	width, height, _, err := webp.GetInfo(data)
	require.NoError(t, err)
	assert.LessOrEqual(t, width, maxDerivativeSize)
	assert.LessOrEqual(t, height, maxDerivativeSize)
}

func TestSaveDetectaMimePorConteudo(t *testing.T) {
	svc := newFileService(t)

	// Content-Type genérico do navegador: o tipo real vem dos bytes
	att, err := svc.Save("sem_nome", "application/octet-stream", pngBytes(t, 8, 8))
	require.NoError(t, err)
	assert.Equal(t, "image/png", att.MimeType)
	assert.Equal(t, database.FileTypeImage, att.Type)
}

func TestReadRetornaOsBytesOriginais(t *testing.T) {
	svc := newFileService(t)

	content := []byte("conteúdo de teste")
	att, err := svc.Save("doc.txt", "text/plain", content)
	require.NoError(t, err)

	record, data, err := svc.Read(att.ID)
	require.NoError(t, err)
	assert.Equal(t, att.ID, record.ID)
	assert.Equal(t, content, data)

	_, _, err = svc.Read("nao-existe")
	assert.ErrorIs(t, err, ErrAttachmentNotFound)
}

func TestDeleteRemoveRegistroEArquivos(t *testing.T) {
	svc := newFileService(t)

	att, err := svc.Save("foto.png", "image/png", pngBytes(t, 32, 32))
	require.NoError(t, err)

	original := svc.Path(att.Filename)
	derivative := att.ProcessedPath

	require.NoError(t, svc.Delete(att.ID))

	_, err = svc.Get(att.ID)
	assert.ErrorIs(t, err, ErrAttachmentNotFound)
	assert.False(t, utils.FileExists(original))
	if derivative != "" {
		assert.False(t, utils.FileExists(derivative))
	}

	assert.ErrorIs(t, svc.Delete(att.ID), ErrAttachmentNotFound)
}

func TestToUTF8ConverteCodificacoesLegadas(t *testing.T) {
	// "ação" em Windows-1252
	legacy := []byte{'a', 0xE7, 0xE3, 'o'}
	assert.Equal(t, "ação", toUTF8(legacy))

	// UTF-8 válido passa intacto
	assert.Equal(t, "coração", toUTF8([]byte("coração")))
}

func TestClassifyMimeType(t *testing.T) {
	assert.Equal(t, database.FileTypePDF, classifyMimeType("application/pdf"))
	assert.Equal(t, database.FileTypeImage, classifyMimeType("image/jpeg"))
	assert.Equal(t, database.FileTypeOther, classifyMimeType("text/plain"))
	assert.Equal(t, database.FileTypeOther, classifyMimeType("application/zip"))
}

func TestCaminhoNaoEscapaDoDiretorioDeUploads(t *testing.T) {
	svc := NewFileService(newTestDB(t), "/tmp/uploads", 1)

	path := svc.Path("../../etc/passwd")
	assert.Equal(t, filepath.Join("/tmp/uploads", "passwd"), path)
}
