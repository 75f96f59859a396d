package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/proximachat/proxima/internal/client"
	"github.com/proximachat/proxima/internal/config"
	"github.com/proximachat/proxima/internal/credstore"
)

const usage = `commands:
  register <email> <password>   create an account
  login <email> <password>      log in
  logout                        log out
  files                         list uploaded files
  upload <path>                 upload a PDF
  rm <file-id>                  delete a file
  process                       build the knowledge base
  status                        show readiness
  ask <question>                ask the knowledge base
  history                       show the chat log
  delmsg <index>                delete one history entry
  clear                         clear the chat history
  quit`

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	creds, err := credstore.Default()
	if err != nil {
		log.Fatalf("credential store: %v", err)
	}

	ctl := client.New(client.NewAPI(cfg.APIBaseURL, nil), creds)
	ctx := context.Background()

	if ok, err := ctl.Restore(); err != nil {
		log.Printf("restore credentials: %v", err)
	} else if ok {
		if err := ctl.RefreshAll(ctx); err != nil {
			log.Printf("refresh: %v", err)
		}
		snap := ctl.Snapshot()
		if snap.Authenticated() {
			fmt.Printf("logged in as %s\n", snap.Credential.Email)
		}
	}

	fmt.Println("proxima (type 'help' for commands)")
	sc := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !sc.Scan() {
			return
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		cmd, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)

		switch cmd {
		case "help":
			fmt.Println(usage)

		case "quit", "exit":
			return

		case "register", "login":
			email, password, ok := strings.Cut(rest, " ")
			if !ok {
				fmt.Printf("usage: %s <email> <password>\n", cmd)
				continue
			}
			if cmd == "register" {
				err = ctl.Register(ctx, email, strings.TrimSpace(password))
			} else {
				err = ctl.Login(ctx, email, strings.TrimSpace(password))
			}
			if report(ctl, err) {
				fmt.Println("ok")
				_ = ctl.RefreshAll(ctx)
			}

		case "logout":
			ctl.Logout(ctx)
			fmt.Println("logged out")

		case "files":
			if !report(ctl, ctl.RefreshFiles(ctx)) {
				continue
			}
			snap := ctl.Snapshot()
			if len(snap.Files) == 0 {
				fmt.Println("no files")
			}
			for _, f := range snap.Files {
				fmt.Printf("%s  %s (%d bytes)\n", f.ID, f.Name, f.Size)
			}

		case "upload":
			if rest == "" {
				fmt.Println("usage: upload <path>")
				continue
			}
			f, err := os.Open(rest)
			if err != nil {
				fmt.Printf("open: %v\n", err)
				continue
			}
			err = ctl.Upload(ctx, filepath.Base(rest), f)
			f.Close()
			if report(ctl, err) {
				fmt.Println("uploaded")
			}

		case "rm":
			if rest == "" {
				fmt.Println("usage: rm <file-id>")
				continue
			}
			if report(ctl, ctl.DeleteFile(ctx, rest)) {
				fmt.Println("deleted")
			}

		case "process":
			if report(ctl, ctl.Process(ctx)) {
				fmt.Println("knowledge base ready")
			}

		case "status":
			if !report(ctl, ctl.RefreshStatus(ctx)) {
				continue
			}
			snap := ctl.Snapshot()
			r := snap.Readiness
			fmt.Printf("state=%s files=%d knowledge_base=%v history=%v\n",
				r.State, r.FileCount, r.HasKnowledgeBase, r.HasHistory)

		case "ask":
			if report(ctl, ctl.Send(ctx, rest)) {
				snap := ctl.Snapshot()
				if n := len(snap.Exchanges); n > 0 {
					last := snap.Exchanges[n-1]
					fmt.Println(last.BotText)
					if len(last.Sources) > 0 {
						fmt.Printf("sources: %s\n", strings.Join(last.Sources, ", "))
					}
				}
			}

		case "history":
			if !report(ctl, ctl.ReloadHistory(ctx)) {
				continue
			}
			snap := ctl.Snapshot()
			if len(snap.Exchanges) == 0 {
				fmt.Println("no history")
			}
			for i, e := range snap.Exchanges {
				fmt.Printf("[%d] you: %s\n    bot: %s\n", i, e.UserText, e.BotText)
			}

		case "delmsg":
			idx, err := strconv.Atoi(rest)
			if err != nil {
				fmt.Println("usage: delmsg <index>")
				continue
			}
			if report(ctl, ctl.DeleteExchange(ctx, idx)) {
				fmt.Println("deleted")
			}

		case "clear":
			if report(ctl, ctl.ClearHistory(ctx)) {
				fmt.Println("history cleared")
			}

		default:
			fmt.Println("unknown command; type 'help'")
		}
	}
}

// report prints the controller's pending error on failure and returns whether
// the operation succeeded.
func report(ctl *client.Controller, err error) bool {
	if err == nil {
		return true
	}
	snap := ctl.Snapshot()
	if snap.PendingError != "" {
		fmt.Println(snap.PendingError)
		ctl.DismissError()
	} else {
		fmt.Printf("error: %v\n", err)
	}
	return false
}
