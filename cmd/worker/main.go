// Command worker chạy expand/parse cho từng dòng của một file (hoặc stdin)
// và ghi kết quả ra stdout dạng NDJSON.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/address-parser/postal-service/app/config"
	"github.com/address-parser/postal-service/app/metrics"
	"github.com/address-parser/postal-service/app/models"
	"github.com/address-parser/postal-service/app/requests"
	"github.com/address-parser/postal-service/app/services"
	"go.uber.org/zap"
)

func main() {
	os.Exit(realMain(os.Args[1:], os.Stdin, os.Stdout))
}

// realMain trả về exit code thay vì gọi os.Exit, để các defer (engine.Close,
// logger.Sync) luôn chạy.
func realMain(args []string, stdin io.Reader, stdout io.Writer) int {
	fs := flag.NewFlagSet("worker", flag.ContinueOnError)
	configPath := fs.String("config", "config/postal.yaml", "file cấu hình libpostal")
	op := fs.String("op", models.OpExpand, "expand | expand_root | parse")
	input := fs.String("input", "-", "file đầu vào, mỗi dòng một địa chỉ (- là stdin)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	if err := config.Load(*configPath); err != nil {
		logger.Warn("Không đọc được cấu hình, dùng mặc định", zap.String("path", *configPath), zap.Error(err))
	}

	in := stdin
	if *input != "-" {
		f, err := os.Open(*input)
		if err != nil {
			logger.Error("Không mở được file đầu vào", zap.Error(err))
			return 1
		}
		defer f.Close()
		in = f
	}

	engine, err := services.NewPostalEngine(config.C, logger)
	if err != nil {
		logger.Error("Failed to initialize libpostal", zap.Error(err))
		return 1
	}
	defer engine.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ps := services.NewPostalService(engine, services.NewCacheService(config.CacheTTL()), metrics.New(), logger)
	processed, failed, err := run(ctx, ps, *op, in, stdout)
	logger.Info("Worker finished", zap.Int("processed", processed), zap.Int("failed", failed))
	if err != nil {
		logger.Error("Worker stopped", zap.Error(err))
		return 1
	}
	return 0
}

// run xử lý từng dòng không rỗng của in. Lỗi của một địa chỉ được ghi
// thành kết quả status=error, không dừng cả lượt chạy.
func run(ctx context.Context, ps *services.PostalService, op string, in io.Reader, out io.Writer) (processed, failed int, err error) {
	w := bufio.NewWriter(out)
	defer w.Flush()
	encoder := json.NewEncoder(w)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return processed, failed, err
		}
		line := scanner.Text()
		if line == "" {
			continue
		}

		result, runErr := ps.Run(ctx, op, line, requests.ExpandOptions{}, requests.ParseOptions{})
		if runErr != nil {
			result = models.ErrorResult(op, line, runErr)
			failed++
		}
		if err := encoder.Encode(result); err != nil {
			return processed, failed, err
		}
		processed++
	}
	return processed, failed, scanner.Err()
}
