// portalctl は市民ポータルAPIの管理用CLI。
//
// サブコマンド:
//
//	login <username> <password>     デモ認証情報でログインする
//	google-login <credential>       Google認証情報でログインする
//	logout                          セッションを破棄する
//	whoami                          現在のセッション情報を表示する
//	citizens [-q query] [-csv]      市民サマリー一覧を表示する
//	citizen-cases <email>           指定市民のケース一覧を表示する
//	users                           ユーザー一覧を表示する
//	invite <name> <email> <role>    ユーザーを招待する
//	set-role <user-id> <role>       ユーザーの権限を変更する
//	delete-user <user-id>           ユーザーを削除する
//	contact <name> <email> <subject> <message>  問い合わせを送信する
//	fetch-document <case-id> <output-path>      提出書類を取得して保存する
//
// APIベースURLは環境変数CITYADMIN_API_URLで指定する。
// 書類取得のタイムアウトとサイズ上限はDOC_FETCH_TIMEOUTとDOC_MAX_SIZEで調整できる。
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cityadmin/portal/internal/config"
	"github.com/cityadmin/portal/internal/model"
	"github.com/cityadmin/portal/internal/pdfview"
	"github.com/cityadmin/portal/internal/portal"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("サブコマンドを指定してください")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sessionPath, err := portal.DefaultSessionPath()
	if err != nil {
		return err
	}
	storage := portal.NewFileStorage(sessionPath)

	var store *portal.SessionStore
	client := portal.NewClient("", portal.WithTokenProvider(func() string {
		return store.AuthToken()
	}))
	store = portal.NewSessionStore(client, storage)

	confirmer := portal.ConfirmerFunc(askConfirmation)

	switch cmd, rest := args[0], args[1:]; cmd {
	case "login":
		return runLogin(store, rest)
	case "google-login":
		return runGoogleLogin(ctx, store, rest)
	case "logout":
		return store.Logout()
	case "whoami":
		return runWhoami(store)
	case "citizens":
		return runCitizens(ctx, client, rest)
	case "citizen-cases":
		return runCitizenCases(ctx, client, rest)
	case "users":
		return runUsers(ctx, client)
	case "invite":
		return runInvite(ctx, client, rest)
	case "set-role":
		return runSetRole(ctx, client, confirmer, rest)
	case "delete-user":
		return runDeleteUser(ctx, client, confirmer, rest)
	case "contact":
		return runContact(ctx, client, rest)
	case "fetch-document":
		return runFetchDocument(ctx, client, rest)
	default:
		return fmt.Errorf("不明なサブコマンドです: %s", cmd)
	}
}

// askConfirmation は標準入力でy/Nの確認を行う。
func askConfirmation(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func runLogin(store *portal.SessionStore, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: portalctl login <username> <password>")
	}
	if err := store.Login(args[0], args[1]); err != nil {
		return err
	}
	fmt.Printf("ログインしました: %s\n", store.CurrentUser().Name)
	return nil
}

func runGoogleLogin(ctx context.Context, store *portal.SessionStore, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: portalctl google-login <credential>")
	}
	if err := store.LoginWithGoogle(ctx, args[0]); err != nil {
		return err
	}
	user := store.CurrentUser()
	fmt.Printf("ログインしました: %s (%s)\n", user.Name, user.Email)
	return nil
}

func runWhoami(store *portal.SessionStore) error {
	if !store.IsAuthenticated() {
		fmt.Println("未ログインです")
		return nil
	}
	user := store.CurrentUser()
	fmt.Printf("名前: %s\nメール: %s\n権限: %s\n", user.Name, user.Email, user.Role)
	return nil
}

func runCitizens(ctx context.Context, client *portal.Client, args []string) error {
	fs := flag.NewFlagSet("citizens", flag.ContinueOnError)
	query := fs.String("q", "", "検索語(名前またはメールアドレスの部分一致)")
	asCSV := fs.Bool("csv", false, "CSV形式で出力する")
	if err := fs.Parse(args); err != nil {
		return err
	}

	result, err := client.FetchCitizens(ctx)
	if err != nil {
		return err
	}
	if result.Degraded {
		fmt.Fprintln(os.Stderr, "警告: 集約エンドポイントが利用できないため、ケース一覧から再構成しました")
	}

	list := portal.SearchCitizens(result.Citizens, *query)
	if *asCSV {
		return portal.ExportCitizensCSV(os.Stdout, list)
	}

	for _, s := range list {
		verified := " "
		if s.Verified {
			verified = "✓"
		}
		fmt.Printf("%s %-30s %-20s 件数:%d (完了:%d 未完了:%d)\n",
			verified, s.Email, s.Name, s.TotalCases, s.CompletedCases, s.PendingCases)
	}
	return nil
}

func runCitizenCases(ctx context.Context, client *portal.Client, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: portalctl citizen-cases <email>")
	}

	cases, err := client.FetchCitizenCases(ctx, args[0])
	if err != nil {
		return err
	}
	for _, c := range cases {
		fmt.Printf("%s  %-20s %s  %s\n", c.SubmittedAt.Format(time.RFC3339), c.Status, c.CaseID, c.CitizenName)
	}
	return nil
}

func runUsers(ctx context.Context, client *portal.Client) error {
	users, err := client.ListUsers(ctx)
	if err != nil {
		return err
	}
	printUsers(users)
	return nil
}

func runInvite(ctx context.Context, client *portal.Client, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: portalctl invite <name> <email> <role>")
	}
	users, err := client.InviteUser(ctx, args[0], args[1], model.Role(args[2]))
	if err != nil {
		return err
	}
	fmt.Println("招待しました")
	printUsers(users)
	return nil
}

func runSetRole(ctx context.Context, client *portal.Client, confirmer portal.Confirmer, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: portalctl set-role <user-id> <role>")
	}
	users, err := client.ChangeUserRole(ctx, confirmer, args[0], model.Role(args[1]))
	if err != nil {
		return err
	}
	fmt.Println("権限を変更しました")
	printUsers(users)
	return nil
}

func runDeleteUser(ctx context.Context, client *portal.Client, confirmer portal.Confirmer, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: portalctl delete-user <user-id>")
	}
	users, err := client.DeleteUser(ctx, confirmer, args[0])
	if err != nil {
		return err
	}
	fmt.Println("削除しました")
	printUsers(users)
	return nil
}

func printUsers(users []portal.PortalUser) {
	for _, u := range users {
		fmt.Printf("%-36s %-30s %-20s %s\n", u.ID, u.Email, u.Name, u.Role)
	}
}

func runContact(ctx context.Context, client *portal.Client, args []string) error {
	if len(args) != 4 {
		return fmt.Errorf("usage: portalctl contact <name> <email> <subject> <message>")
	}
	id, err := client.SubmitContact(ctx, portal.ContactInput{
		Name:    args[0],
		Email:   args[1],
		Subject: args[2],
		Message: args[3],
	})
	if err != nil {
		return err
	}
	fmt.Printf("受け付けました: %s\n", id)
	return nil
}

func runFetchDocument(ctx context.Context, client *portal.Client, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: portalctl fetch-document <case-id> <output-path>")
	}

	c, err := client.FetchCase(ctx, args[0])
	if err != nil {
		return err
	}
	if c.DocumentURL == "" {
		return fmt.Errorf("ケース %s に提出書類はありません", args[0])
	}

	docCfg := config.LoadDocFetch()
	loader := pdfview.NewDocumentLoader(docCfg.Timeout, docCfg.MaxSize)
	data, err := loader.Fetch(ctx, c.DocumentURL)
	if err != nil {
		return err
	}
	if err := os.WriteFile(args[1], data, 0o644); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	fmt.Printf("保存しました: %s (%d bytes)\n", args[1], len(data))
	return nil
}
