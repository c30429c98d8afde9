package services

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/ledongthuc/pdf"
	"golang.org/x/text/encoding/charmap"
	"gorm.io/gorm"

	"qisa/database"
	"qisa/utils"
)

// Lado máximo do derivado otimizado em pixels
const maxDerivativeSize = 1024

var (
	ErrFileTooLarge       = errors.New("o arquivo excede o tamanho máximo permitido")
	ErrAttachmentNotFound = errors.New("arquivo não encontrado")
)

type FileService struct {
	db            *gorm.DB
	uploadPath    string
	maxFileSizeMB int
}

func NewFileService(db *gorm.DB, uploadPath string, maxFileSizeMB int) *FileService {
	return &FileService{
		db:            db,
		uploadPath:    uploadPath,
		maxFileSizeMB: maxFileSizeMB,
	}
}

// Save grava o upload em disco, classifica por tipo MIME e processa o
// conteúdo (texto de PDF, derivado WebP de imagens)
func (s *FileService) Save(originalName, declaredMime string, data []byte) (*database.FileAttachment, error) {
	if int64(len(data)) > int64(s.maxFileSizeMB)*1024*1024 {
		return nil, fmt.Errorf("%w (%d MB)", ErrFileTooLarge, s.maxFileSizeMB)
	}

	mimeType := declaredMime
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}

	filename := utils.GenerateUniqueFilename(originalName)
	destPath := filepath.Join(s.uploadPath, filename)

	if err := os.MkdirAll(s.uploadPath, 0755); err != nil {
		return nil, fmt.Errorf("erro ao criar diretório de uploads: %w", err)
	}
	if err := os.WriteFile(destPath, data, 0644); err != nil {
		return nil, fmt.Errorf("erro ao salvar arquivo: %w", err)
	}

	id := utils.GenerateID()
	attachment := database.FileAttachment{
		ID:           id,
		Filename:     filename,
		OriginalName: originalName,
		MimeType:     mimeType,
		Size:         int64(len(data)),
		URL:          "/api/files/" + id,
		Type:         classifyMimeType(mimeType),
	}

	switch attachment.Type {
	case database.FileTypePDF:
		text, err := extractPDFText(destPath)
		if err != nil {
			utils.LogError("files", "falha ao extrair texto do PDF "+originalName, err)
		} else {
			attachment.ExtractedText = text
		}
	case database.FileTypeImage:
		processed, err := s.optimizeImage(data, filename)
		if err != nil {
			utils.LogError("files", "falha ao otimizar imagem "+originalName, err)
		} else {
			attachment.ProcessedPath = processed
		}
	default:
		// Arquivos de texto em codificações legadas viram UTF-8
		if strings.HasPrefix(mimeType, "text/") {
			attachment.ExtractedText = toUTF8(data)
		}
	}

	if err := s.db.Create(&attachment).Error; err != nil {
		os.Remove(destPath)
		return nil, fmt.Errorf("erro ao registrar arquivo: %w", err)
	}

	utils.LogSuccess("files", fmt.Sprintf("arquivo %s salvo (%s, %d bytes)", attachment.ID, attachment.Type, attachment.Size))
	return &attachment, nil
}

// Get busca os metadados de um arquivo pelo ID
func (s *FileService) Get(id string) (*database.FileAttachment, error) {
	var attachment database.FileAttachment
	if err := s.db.Where("id = ?", id).First(&attachment).Error; err != nil {
		return nil, ErrAttachmentNotFound
	}
	return &attachment, nil
}

// Read carrega os bytes do arquivo para envio ao modelo
func (s *FileService) Read(id string) (*database.FileAttachment, []byte, error) {
	attachment, err := s.Get(id)
	if err != nil {
		return nil, nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.uploadPath, attachment.Filename))
	if err != nil {
		return nil, nil, fmt.Errorf("erro ao ler arquivo: %w", err)
	}
	return attachment, data, nil
}

// Path retorna o caminho em disco de um arquivo salvo
func (s *FileService) Path(filename string) string {
	return filepath.Join(s.uploadPath, filepath.Base(filename))
}

// Delete remove o registro, o original e o derivado otimizado
func (s *FileService) Delete(id string) error {
	attachment, err := s.Get(id)
	if err != nil {
		return err
	}

	if err := s.db.Delete(&database.FileAttachment{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("erro ao remover registro: %w", err)
	}

	if path := s.Path(attachment.Filename); utils.FileExists(path) {
		if err := utils.DeleteFile(path); err != nil {
			utils.LogError("files", "falha ao apagar original "+attachment.Filename, err)
		}
	}
	if attachment.ProcessedPath != "" && utils.FileExists(attachment.ProcessedPath) {
		if err := utils.DeleteFile(attachment.ProcessedPath); err != nil {
			utils.LogError("files", "falha ao apagar derivado "+attachment.ProcessedPath, err)
		}
	}

	return nil
}

// optimizeImage gera um derivado WebP limitado a maxDerivativeSize pixels
func (s *FileService) optimizeImage(data []byte, filename string) (string, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("erro ao decodificar imagem: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxDerivativeSize || bounds.Dy() > maxDerivativeSize {
		img = imaging.Fit(img, maxDerivativeSize, maxDerivativeSize, imaging.Lanczos)
	}

	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	webpPath := filepath.Join(s.uploadPath, base+".webp")

	out, err := os.Create(webpPath)
	if err != nil {
		return "", fmt.Errorf("erro ao criar derivado: %w", err)
	}
	defer out.Close()

	if err := webp.Encode(out, img, &webp.Options{Quality: 80}); err != nil {
		os.Remove(webpPath)
		return "", fmt.Errorf("erro ao codificar WebP: %w", err)
	}

	return webpPath, nil
}

// classifyMimeType classifica o tipo MIME em pdf, image ou other
func classifyMimeType(mimeType string) string {
	switch {
	case mimeType == "application/pdf":
		return database.FileTypePDF
	case strings.HasPrefix(mimeType, "image/"):
		return database.FileTypeImage
	default:
		return database.FileTypeOther
	}
}

// extractPDFText extrai o texto de um PDF salvo em disco
func extractPDFText(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// toUTF8 converte arquivos de texto em codificações legadas para UTF-8.
// Windows-1252 e ISO-8859-1 cobrem os acentos do português em arquivos
// antigos do Windows.
func toUTF8(content []byte) string {
	if utf8.Valid(content) {
		return string(content)
	}

	for _, cm := range []*charmap.Charmap{charmap.Windows1252, charmap.ISO8859_1} {
		decoded, err := cm.NewDecoder().Bytes(content)
		if err == nil && utf8.Valid(decoded) {
			return string(decoded)
		}
	}

	return string(content)
}
