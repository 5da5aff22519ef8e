package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	ammsim "github.com/wanxinwanxin/ammsim"
	"github.com/wanxinwanxin/ammsim/configs"
	"github.com/wanxinwanxin/ammsim/internal/db"
	"github.com/wanxinwanxin/ammsim/pkg/runner"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("usage: ammsim <batch-config.yml>")
		os.Exit(1)
	}

	// Local development secrets; a missing .env is fine in CI.
	_ = godotenv.Load()

	conf, err := configs.LoadConfig(os.Args[1])
	if err != nil {
		panic(err)
	}

	batchCfg, err := conf.ToBatchConfig()
	if err != nil {
		panic(err)
	}

	var batchResult ammsim.BatchResult
	reportChan := make(chan string)
	done := make(chan error, 1)

	go func() {
		defer close(reportChan)
		result, errs, err := runner.RunBatch(*batchCfg)
		if err != nil {
			done <- err
			return
		}
		for i, simErr := range errs {
			if simErr != nil {
				reportChan <- fmt.Sprintf("simulation %d failed: %v", i, simErr)
				continue
			}
			reportChan <- fmt.Sprintf("simulation %d complete", i)
		}
		batchResult = result
		done <- nil
	}()

	for update := range reportChan {
		println(update)
	}
	if err := <-done; err != nil {
		panic(err)
	}

	printSummary(batchResult)

	dsn := conf.MySQLDSN
	if env := os.Getenv("MYSQL_DSN"); env != "" {
		dsn = env
	}
	if dsn == "" {
		return
	}

	recorder, err := db.NewMySQLRecorder(dsn)
	if err != nil {
		panic(err)
	}
	defer recorder.Close()

	if err := recorder.RecordBatch(batchResult); err != nil {
		panic(err)
	}
}

func printSummary(batch ammsim.BatchResult) {
	if len(batch.Strategies) == 2 {
		winsA, winsB, draws := batch.WinCounts()
		totalA, totalB := batch.TotalPnL()
		fmt.Printf("%s: %d wins, total PnL %.4f\n", batch.Strategies[0], winsA, totalA)
		fmt.Printf("%s: %d wins, total PnL %.4f\n", batch.Strategies[1], winsB, totalB)
		fmt.Printf("draws: %d\n", draws)
		if winner, ok := batch.OverallWinner(); ok {
			fmt.Printf("overall winner: %s\n", winner)
		} else {
			fmt.Println("overall winner: draw")
		}
		return
	}
	for name, wins := range batch.WinCountsByStrategy() {
		fmt.Printf("%s: %d wins\n", name, wins)
	}
}
