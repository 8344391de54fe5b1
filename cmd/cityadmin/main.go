// cityadmin は市民ポータルのAPIサーバー。
//
// サブコマンド:
//
//	serve       APIサーバーを起動する(デフォルト)
//	migrate     データベースマイグレーションを適用する
//	healthcheck 稼働中のサーバーの状態を確認する
package main

import (
	"fmt"
	"os"

	"github.com/cityadmin/portal/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
