package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"wearcraft.dev/internal/persistence/mapfile"
	"wearcraft.dev/internal/persistence/mapindex"
	"wearcraft.dev/internal/persistence/upload"
	"wearcraft.dev/internal/sim/world"
	"wearcraft.dev/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		configPath = flag.String("config", "./configs/world.yaml", "world tuning path")
		mapPath    = flag.String("map", "", "map document to load (overrides the config's map_path)")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		saveURL    = flag.String("save_url", "", "remote save endpoint (empty saves locally)")
		disableDB  = flag.Bool("disable_db", false, "disable the save/command index")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := world.LoadConfig(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if strings.TrimSpace(*mapPath) != "" {
		cfg.MapPath = *mapPath
	}
	if cfg.MapPath == "" {
		logger.Fatalf("no map: set map_path in %s or pass -map", *configPath)
	}

	doc, err := mapfile.Read(cfg.MapPath)
	if err != nil {
		logger.Fatalf("read map: %v", err)
	}

	worldDir := filepath.Join(*dataDir, "worlds", cfg.ID)
	_ = os.MkdirAll(filepath.Join(worldDir, "saves"), 0o755)

	var idx *mapindex.SQLiteIndex
	if !*disableDB {
		idx, err = mapindex.OpenSQLite(filepath.Join(worldDir, "index.db"))
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer idx.Close()
	}

	w := world.New(cfg)
	w.SetLogger(logger)
	if idx != nil {
		w.SetAuditLogger(indexAuditLogger{idx})
	}
	if err := w.LoadMap(doc); err != nil {
		logger.Fatalf("load map: %v", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	uploader := upload.New(strings.TrimSpace(*saveURL), filepath.Join(worldDir, "saves"), logger)

	// Autosave writer. The loop hands over exported documents; disk and
	// network stay off the world thread.
	saveCh := make(chan world.SavePoint, 2)
	w.SetSnapshotSink(saveCh)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case sp := <-saveCh:
				path := filepath.Join(worldDir, "saves", fmt.Sprintf("%d.map.json", sp.Tick))
				if err := mapfile.Write(path, sp.Doc); err != nil {
					logger.Printf("autosave write: %v", err)
					continue
				}
				archivePath := path + ".zst"
				if err := mapfile.WriteArchive(archivePath, sp.Doc); err != nil {
					logger.Printf("autosave archive: %v", err)
				}
				if idx != nil {
					idx.RecordSave(mapindex.SaveRecord{
						MapID:    sp.Doc.ID,
						Name:     sp.Doc.Name,
						Path:     path,
						Tick:     sp.Tick,
						Entities: len(sp.Doc.Entities),
						Digest:   sp.Digest,
						Autosave: true,
					})
				}
			}
		}
	}()

	go func() {
		if err := w.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("world stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/v1/save", func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		ctx2, cancel2 := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel2()

		rw.Header().Set("Content-Type", "application/json")
		exported, err := w.RequestExport(ctx2)
		if err != nil {
			rw.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(rw).Encode(map[string]any{"ok": false, "error": err.Error()})
			return
		}
		location, remote, err := uploader.Save(ctx2, exported)
		if err != nil {
			rw.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(rw).Encode(map[string]any{"ok": false, "error": err.Error()})
			return
		}
		if idx != nil {
			idx.RecordSave(mapindex.SaveRecord{
				MapID:    exported.ID,
				Name:     exported.Name,
				Path:     location,
				Tick:     w.CurrentTick(),
				Entities: len(exported.Entities),
			})
		}
		_ = json.NewEncoder(rw).Encode(map[string]any{"ok": true, "location": location, "remote": remote})
	})
	mux.HandleFunc("/v1/ws", ws.NewServer(w, logger).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("map %s, listening on %s", doc.ID, *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

type indexAuditLogger struct {
	idx *mapindex.SQLiteIndex
}

func (l indexAuditLogger) WriteAudit(e world.AuditEntry) error {
	l.idx.RecordCommand(mapindex.CommandRecord{
		Tick:     e.Tick,
		Agent:    e.Agent,
		Command:  e.Command,
		Code:     e.Code,
		EntityID: e.EntityID,
		Detail:   e.Detail,
	})
	return nil
}
