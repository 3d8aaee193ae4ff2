// Package scanner wires the socketeer, generator, handler and stats together
// and runs them until the discovery attempts are exhausted or Stop is called.
package scanner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/corneldamian/httpway"
	"github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/ipchama/dhcpsentry/alert"
	"github.com/ipchama/dhcpsentry/config"
	"github.com/ipchama/dhcpsentry/generator"
	"github.com/ipchama/dhcpsentry/handler"
	"github.com/ipchama/dhcpsentry/report"
	"github.com/ipchama/dhcpsentry/socketeer"
	"github.com/ipchama/dhcpsentry/stats"
)

type Options struct {
	Scan      *config.ScanOptions
	Socketeer *config.SocketeerOptions
	Api       *config.ApiOptions

	Sink    report.Sink
	Alerter alert.Alerter
	Logger  *slog.Logger

	// Registry receives the scan metrics. A fresh registry is used when nil.
	Registry *prometheus.Registry
	// AccessLog receives API request logs. Defaults to stderr.
	AccessLog io.Writer
}

type Scanner struct {
	options Options
	logger  *slog.Logger

	logChannel   chan string
	debugChannel chan string
	errorChannel chan error

	// channelsMux guards the channels against sends after they are closed.
	channelsMux    sync.RWMutex
	channelsClosed bool

	handler   handler.Handler
	generator generator.Generator
	stats     stats.Stats
	socketeer socketeer.Socketeer
	collector *stats.Collector

	apiServer *httpway.Server
}

func New(o Options) *Scanner {

	if o.Logger == nil {
		o.Logger = slog.Default()
	}

	if o.Registry == nil {
		o.Registry = prometheus.NewRegistry()
	}

	if o.AccessLog == nil {
		o.AccessLog = os.Stderr
	}

	s := Scanner{
		options:      o,
		logger:       o.Logger,
		logChannel:   make(chan string, 1000),
		debugChannel: make(chan string, 1000),
		errorChannel: make(chan error, 1000),
	}

	return &s
}

func (s *Scanner) Init() error {

	var err error

	s.collector = stats.NewCollector(s.options.Registry)

	if s.stats, err = stats.New(s.options.Scan, s.collector, s.addLog, s.addError); err != nil {
		return err
	}

	if err = s.stats.Init(); err != nil {
		return err
	}

	if s.socketeer, err = socketeer.New(s.options.Socketeer, s.addLog, s.addError); err != nil {
		return err
	}

	if err = s.socketeer.Init(); err != nil {
		return fmt.Errorf("socket on %q: %w", s.options.Socketeer.InterfaceName, err)
	}

	var debugFunc func(string) bool
	if s.logger.Enabled(context.Background(), slog.LevelDebug) {
		debugFunc = s.addDebug
	}

	if s.handler, err = handler.New(s.options.Scan, s.options.Sink, s.options.Alerter, s.addLog, s.addError, s.stats.AddStat, debugFunc); err != nil {
		return err
	}

	if err = s.handler.Init(); err != nil {
		return err
	}

	s.socketeer.SetReceiver(s.handler.ReceiveMessage)

	if s.generator, err = generator.New(s.socketeer, s.options.Scan, s.addLog, s.addError, s.stats.AddStat, s.handler.ReceiveMessage); err != nil {
		return err
	}

	if err = s.generator.Init(); err != nil {
		return err
	}

	if s.options.Api.Enabled() {
		if err = s.startApiServer(); err != nil {
			return err
		}
	}

	return nil
}

func (s *Scanner) deInit() {
	var err error

	if err = s.socketeer.DeInit(); err != nil {
		s.addError(err)
	}

	if err = s.handler.DeInit(); err != nil {
		s.addError(err)
	}

	if err = s.generator.DeInit(); err != nil {
		s.addError(err)
	}

	if err = s.stats.DeInit(); err != nil {
		s.addError(err)
	}
}

// Run blocks until every component has stopped.
func (s *Scanner) Run() error {

	var readers, g errgroup.Group

	s.logger.Info("starting error channel reader")
	readers.Go(func() error {
		for err := range s.errorChannel {
			s.logger.Error("scan error", slog.String("error", err.Error()))
		}
		return nil
	})

	s.logger.Info("starting log channel reader")
	readers.Go(func() error {
		for msg := range s.logChannel {
			s.logger.Info(msg)
		}
		return nil
	})

	readers.Go(func() error {
		for msg := range s.debugChannel {
			s.logger.Debug("offer received", slog.String("packet", msg))
		}
		return nil
	})

	s.logger.Info("starting stats")
	g.Go(func() error {
		s.stats.Run()
		s.logger.Info("stopped stats")
		return nil
	})

	s.logger.Info("starting writer")
	g.Go(func() error {
		s.socketeer.RunWriter()
		s.logger.Info("stopped writer")
		return nil
	})

	s.logger.Info("starting handler")
	g.Go(func() error {
		s.handler.Run()
		s.logger.Info("stopped handler")
		return nil
	})

	s.logger.Info("starting listener")
	g.Go(func() error {
		s.socketeer.RunListener()
		s.logger.Info("stopped listener")
		return nil
	})

	if s.apiServer != nil {
		g.Go(func() error {
			if err := s.apiServer.WaitStop(2 * time.Second); err != nil {
				s.logger.Warn("API server stopped with requests in flight", slog.String("error", err.Error()))
				return nil
			}
			s.logger.Info("stopped API server")
			return nil
		})
	}

	s.logger.Info("starting generator")
	g.Go(func() error {
		s.generator.Run()
		s.logger.Info("stopped generator, stopping everything else")
		s.stop()
		return nil
	})

	err := g.Wait()

	// Every producer has returned; API requests still in flight find the
	// channels closed and drop their entries.
	s.closeChannels()
	_ = readers.Wait()

	s.logStats()

	return err
}

func (s *Scanner) addError(e error) bool {
	s.channelsMux.RLock()
	defer s.channelsMux.RUnlock()

	if s.channelsClosed {
		return false
	}

	select {
	case s.errorChannel <- e:
		return true
	default:
	}
	return false
}

func (s *Scanner) addLog(msg string) bool {
	s.channelsMux.RLock()
	defer s.channelsMux.RUnlock()

	if s.channelsClosed {
		return false
	}

	select {
	case s.logChannel <- msg:
		return true
	default:
	}

	return false
}

func (s *Scanner) addDebug(msg string) bool {
	s.channelsMux.RLock()
	defer s.channelsMux.RUnlock()

	if s.channelsClosed {
		return false
	}

	select {
	case s.debugChannel <- msg:
		return true
	default:
	}

	return false
}

func (s *Scanner) closeChannels() {
	s.channelsMux.Lock()
	defer s.channelsMux.Unlock()

	s.channelsClosed = true

	close(s.errorChannel)
	close(s.logChannel)
	close(s.debugChannel)
}

// Stop ends the current cycle early. Run returns once everything has wound
// down. Stopping a scan whose attempts already ran out is a no-op.
func (s *Scanner) Stop() {
	select {
	case <-s.generator.Done():
		return
	default:
	}

	if err := s.generator.Stop(); err != nil {
		s.addError(err)
	}
}

// RogueFound reports whether any offer from an unauthorised server was seen.
func (s *Scanner) RogueFound() bool {
	return s.handler.RogueFound()
}

func (s *Scanner) Stats() []stats.Stat {
	return s.stats.Counters()
}

func (s *Scanner) stop() {
	var err error

	// Order matters: nothing may feed a component after it has stopped.

	if s.apiServer != nil {
		if err = s.apiServer.Stop(); err != nil {
			s.addError(err)
		}
	}

	if err = s.socketeer.StopListener(); err != nil {
		s.addError(err)
	}

	if err = s.handler.Stop(); err != nil {
		s.addError(err)
	}

	if err = s.socketeer.StopWriter(); err != nil {
		s.addError(err)
	}

	if err = s.stats.Stop(); err != nil {
		s.addError(err)
	}

	s.deInit()
}

func (s *Scanner) logStats() {
	counters := s.stats.Counters()

	attrs := make([]slog.Attr, 0, len(counters))
	for _, c := range counters {
		attrs = append(attrs, slog.Int(c.Name, c.Value))
	}

	s.logger.LogAttrs(context.Background(), slog.LevelInfo, "scan finished", attrs...)
}

func (s *Scanner) startApiServer() error {

	r := NewApiRouter(s.stats, s.handler, s.generator, s.options.Registry, s.addError)

	s.apiServer = httpway.NewServer(nil)
	s.apiServer.Handler = handlers.LoggingHandler(s.options.AccessLog, r)
	s.apiServer.Addr = fmt.Sprintf("%s:%d", s.options.Api.Address, s.options.Api.Port)

	s.logger.Info("starting API server", slog.String("addr", s.apiServer.Addr))

	return s.apiServer.Start()
}
