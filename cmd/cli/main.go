package main

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}
	cmd := os.Args[1]
	args := os.Args[2:]
	switch cmd {
	case "version":
		fmt.Println("resume-platform cli 0.1.0")
	case "health":
		runHealth()
	case "server":
		if len(args) > 0 && args[0] == "start" {
			runServerStart()
		} else {
			fmt.Fprintf(os.Stderr, "Usage: resume server start\n")
			os.Exit(1)
		}
	case "new":
		runNew(args)
	case "import":
		runImport(args)
	case "sessions":
		runSessions()
	case "show":
		if len(args) < 1 {
			fmt.Fprintf(os.Stderr, "Usage: resume show <session_id>\n")
			os.Exit(1)
		}
		runShow(args[0])
	case "delete":
		if len(args) < 1 {
			fmt.Fprintf(os.Stderr, "Usage: resume delete <session_id>\n")
			os.Exit(1)
		}
		runDelete(args[0])
	case "chat":
		runChat(args)
	case "mode":
		if len(args) < 2 {
			fmt.Fprintf(os.Stderr, "Usage: resume mode <session_id> <manual|auto>\n")
			os.Exit(1)
		}
		runMode(args[0], args[1])
	case "plan":
		runPlan(args)
	case "create":
		runCreate(args)
	case "render":
		if len(args) < 1 {
			fmt.Fprintf(os.Stderr, "Usage: resume render <session_id> [file_name]\n")
			os.Exit(1)
		}
		fileName := ""
		if len(args) > 1 {
			fileName = args[1]
		}
		runRender(args[0], fileName)
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: resume <command> [args]")
	fmt.Println("  version                   - 显示版本")
	fmt.Println("  health                    - 健康检查")
	fmt.Println("  server start              - 启动 API 服务（go run ./cmd/api）")
	fmt.Println("  new <job_file> <cand_file> [name] - 从文本文件创建会话")
	fmt.Println("  import <job_file> <resume.pdf> [name] - 从候选人 PDF 创建会话")
	fmt.Println("  sessions                  - 列出所有会话")
	fmt.Println("  show <session_id>         - 显示会话详情")
	fmt.Println("  delete <session_id>       - 删除会话")
	fmt.Println("  chat [session_id]         - 交互式对话（未传 id 时需环境 RESUME_SESSION_ID）")
	fmt.Println("  mode <session_id> <manual|auto> - 切换会话模式")
	fmt.Println("  plan <session_id> [standard|comprehensive] - 生成并交互式确认计划，然后执行")
	fmt.Println("  create <session_id> [mode] - 自治生成完整简历")
	fmt.Println("  render <session_id> [file_name] - 把简历草稿渲染为 PDF")
}

func runHealth() {
	out, err := getHealth()
	if err != nil {
		fmt.Fprintf(os.Stderr, "健康检查失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(prettyJSON(out))
}

func runServerStart() {
	c := exec.Command("go", "run", "./cmd/api")
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	c.Dir = "."
	if err := c.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "server start: %v\n", err)
		os.Exit(1)
	}
}

func runNew(args []string) {
	if len(args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: resume new <job_file> <cand_file> [name]\n")
		os.Exit(1)
	}
	jobInfo, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取岗位描述失败: %v\n", err)
		os.Exit(1)
	}
	candInfo, err := os.ReadFile(args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取候选人信息失败: %v\n", err)
		os.Exit(1)
	}
	name := ""
	if len(args) > 2 {
		name = args[2]
	}
	meta, err := createSession(string(jobInfo), string(candInfo), name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "创建会话失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(prettyJSON(meta))
}

func runImport(args []string) {
	if len(args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: resume import <job_file> <resume.pdf> [name]\n")
		os.Exit(1)
	}
	jobInfo, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取岗位描述失败: %v\n", err)
		os.Exit(1)
	}
	name := ""
	if len(args) > 2 {
		name = args[2]
	}
	meta, err := importPDF(string(jobInfo), args[1], name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "导入 PDF 失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(prettyJSON(meta))
}

func runSessions() {
	sessions, err := listSessions()
	if err != nil {
		fmt.Fprintf(os.Stderr, "列出会话失败: %v\n", err)
		os.Exit(1)
	}
	if len(sessions) == 0 {
		fmt.Println("[]")
		return
	}
	fmt.Println(prettyJSON(sessions))
}

func runShow(id string) {
	record, err := getSession(id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "获取会话失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(prettyJSON(record))
}

func runDelete(id string) {
	out, err := deleteSession(id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "删除会话失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(prettyJSON(out))
}

func runChat(args []string) {
	sessionID := os.Getenv("RESUME_SESSION_ID")
	if len(args) > 0 {
		sessionID = args[0]
	}
	if sessionID == "" {
		fmt.Fprintf(os.Stderr, "请指定 session_id: resume chat <session_id> 或设置 RESUME_SESSION_ID\n")
		os.Exit(1)
	}
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			break
		}
		msg := strings.TrimSpace(line)
		if msg == "" {
			continue
		}
		if msg == "exit" || msg == "quit" {
			break
		}
		response, err := postChat(sessionID, msg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "发送失败: %v\n", err)
			continue
		}
		fmt.Println(response)
	}
}

func runMode(id, mode string) {
	meta, err := switchMode(id, mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "切换模式失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(prettyJSON(meta))
}

// runPlan 生成计划并交互式确认：用户可以直接执行、用自然语言修订、或放弃
func runPlan(args []string) {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Usage: resume plan <session_id> [standard|comprehensive]\n")
		os.Exit(1)
	}
	sessionID := args[0]
	mode := "standard"
	if len(args) > 1 {
		mode = args[1]
	}

	plan, markdown, err := proposePlan(sessionID, mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "生成计划失败: %v\n", err)
		os.Exit(1)
	}

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Println(markdown)
		fmt.Print("执行该计划? (y=执行 / n=放弃 / 其他输入=修订指令): ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		answer := strings.TrimSpace(line)
		switch strings.ToLower(answer) {
		case "y", "yes":
			result, err := executePlan(sessionID, plan)
			if err != nil {
				fmt.Fprintf(os.Stderr, "执行失败: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(prettyJSON(result))
			return
		case "n", "no", "":
			fmt.Println("已放弃。")
			return
		default:
			plan, markdown, err = revisePlan(sessionID, plan, answer)
			if err != nil {
				fmt.Fprintf(os.Stderr, "修订计划失败: %v\n", err)
				os.Exit(1)
			}
		}
	}
}

func runCreate(args []string) {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Usage: resume create <session_id> [mode]\n")
		os.Exit(1)
	}
	mode := "standard"
	if len(args) > 1 {
		mode = args[1]
	}
	resume, err := createResume(args[0], mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "生成简历失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(resume)
}

func runRender(id, fileName string) {
	out, err := renderPDF(id, fileName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "渲染 PDF 失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(prettyJSON(out))
}
