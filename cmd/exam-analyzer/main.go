// @title Medical Exam Analyzer API
// @version 1.0
// @description Comparative analysis of medical exam images against normal references
// @BasePath /
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"exam-analyzer-go/internal/bootstrap"
)

func main() {
	fmt.Printf("[%s] [INFO] [BOOT] starting exam-analyzer...\n", time.Now().Format("2006-01-02 15:04:05.000"))
	if err := bootstrap.Run(context.Background()); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "exam-analyzer failed: %v\n", err)
		os.Exit(1)
	}
}
