package logger

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/flybasist/eclipse/internal/kafkabot"
)

const (
	logDir       = "./audit"
	logRetention = 30 * 24 * time.Hour // 30 дней
)

// dailyFile пишет записи журнала в файл текущей даты. Дескриптор
// держится открытым до смены даты; при перекате старые файлы
// вычищаются по сроку хранения.
type dailyFile struct {
	dir    string
	day    string
	file   *os.File
	writer *bufio.Writer
}

// Append дописывает одну запись. JSON форматируется с отступами,
// остальное пишется как есть.
func (d *dailyFile) Append(raw []byte, now time.Time) error {
	day := now.Format("2006-01-02")
	if day != d.day {
		if err := d.Close(); err != nil {
			log.Printf("Failed to close audit file: %v", err)
		}
		file, err := os.OpenFile(filepath.Join(d.dir, day+".log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		d.file = file
		d.writer = bufio.NewWriter(file)
		d.day = day
		cleanOldLogs(d.dir, now)
	}

	var pretty map[string]any
	if json.Unmarshal(raw, &pretty) == nil {
		data, _ := json.MarshalIndent(pretty, "", "  ")
		d.writer.Write(data)
	} else {
		d.writer.Write(raw)
	}
	d.writer.WriteString("\n")
	return d.writer.Flush()
}

// Close сбрасывает буфер и закрывает текущий файл, если он открыт.
func (d *dailyFile) Close() error {
	if d.file == nil {
		return nil
	}
	d.writer.Flush()
	err := d.file.Close()
	d.file = nil
	d.writer = nil
	d.day = ""
	return err
}

// RunAuditConsumer читает журнал модерации из Kafka и складывает его
// в ежедневные файлы. Запускается отдельным бинарником cmd/eventlog.
func RunAuditConsumer(ctx context.Context, brokers []string, topic string) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Fatalf("Failed to create audit dir: %v", err)
	}

	reader := kafkabot.NewReader(brokers, topic, "eclipse-audit-logger")
	defer reader.Close()

	out := &dailyFile{dir: logDir}
	defer out.Close()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.Printf("Kafka read error: %v", err)
			time.Sleep(time.Second)
			continue
		}

		if err := out.Append(msg.Value, time.Now()); err != nil {
			log.Printf("Failed to write audit record: %v", err)
		}
	}
}

// Удаляет файлы журнала старше срока хранения.
func cleanOldLogs(dir string, now time.Time) {
	files, err := os.ReadDir(dir)
	if err != nil {
		log.Printf("Failed to read audit directory: %v", err)
		return
	}

	for _, file := range files {
		if info, err := file.Info(); err == nil {
			if now.Sub(info.ModTime()) > logRetention {
				os.Remove(filepath.Join(dir, file.Name()))
			}
		}
	}
}
