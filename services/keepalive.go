package services

import (
	"net/http"
	"time"

	"qisa/utils"
)

// KeepAliveService dispara GETs periódicos na própria URL pública para
// impedir que a plataforma de hospedagem hiberne o processo. Não tem
// nenhum papel de consistência de dados.
type KeepAliveService struct {
	url      string
	interval time.Duration
	client   *http.Client
	stop     chan struct{}
}

func NewKeepAliveService(url string, interval time.Duration) *KeepAliveService {
	return &KeepAliveService{
		url:      url,
		interval: interval,
		client:   &http.Client{Timeout: 10 * time.Second},
		stop:     make(chan struct{}),
	}
}

// Start inicia o ping periódico em uma goroutine própria
func (s *KeepAliveService) Start() {
	utils.LogInfo("keepalive", "ping periódico iniciado: "+s.url)

	ticker := time.NewTicker(s.interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.ping()
			case <-s.stop:
				utils.LogInfo("keepalive", "ping periódico encerrado")
				return
			}
		}
	}()
}

// Stop encerra a goroutine de ping
func (s *KeepAliveService) Stop() {
	select {
	case <-s.stop:
		// já encerrado
	default:
		close(s.stop)
	}
}

func (s *KeepAliveService) ping() {
	resp, err := s.client.Get(s.url)
	if err != nil {
		utils.LogError("keepalive", "falha no ping", err)
		return
	}
	resp.Body.Close()
}
