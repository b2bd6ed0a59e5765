// Package main 提供 ice4j 候选收集命令行入口
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/sclzwster/ice4j"
	"github.com/sclzwster/ice4j/pkg/lib/log"
)

var logger = log.Logger("ice4j/cmd")

// ═══════════════════════════════════════════════════════════════════════════
// 命令行参数
// ═══════════════════════════════════════════════════════════════════════════
var (
	// ─────────────────────────────────────────────────────────────────────
	// 服务器参数
	// ─────────────────────────────────────────────────────────────────────
	stunServers = flag.String("stun", "stun.l.google.com:19302", "STUN 服务器列表（逗号分隔的 host:port）")
	turnServers = flag.String("turn", "", "TURN 服务器列表（逗号分隔的 host:port）")
	username    = flag.String("username", "", "TURN 长期凭证用户名")
	password    = flag.String("password", "", "TURN 长期凭证密码")

	// ─────────────────────────────────────────────────────────────────────
	// 本地绑定参数
	// ─────────────────────────────────────────────────────────────────────
	localIP   = flag.String("local", "0.0.0.0", "本地绑定 IP")
	localPort = flag.Int("port", 0, "本地绑定端口（0 = 随机端口）")

	// ─────────────────────────────────────────────────────────────────────
	// 信息显示
	// ─────────────────────────────────────────────────────────────────────
	verbose     = flag.Bool("verbose", false, "输出调试日志")
	showVersion = flag.Bool("version", false, "显示版本信息")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(ice4j.VersionInfo())
		return
	}

	if *verbose {
		log.SetLevel(log.LevelDebug)
	}

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "错误:", err)
		os.Exit(1)
	}
}

func run() error {
	agent, err := ice4j.NewAgent()
	if err != nil {
		return err
	}
	defer agent.Close()

	local := ice4j.TransportAddress{
		IP:        net.ParseIP(*localIP),
		Port:      *localPort,
		Transport: ice4j.TransportUDP,
	}

	component, err := agent.NewMediaStream("default").CreateComponent(local)
	if err != nil {
		return fmt.Errorf("绑定本地套接字失败: %w", err)
	}

	harvesters, err := buildHarvesters()
	if err != nil {
		return err
	}
	if len(harvesters) == 0 {
		return fmt.Errorf("未配置任何服务器")
	}

	for _, c := range component.LocalCandidates() {
		fmt.Println("本地候选:", c)
	}

	// 每个服务器一轮收集，各收集器独立阻塞
	var mu sync.Mutex
	var all []*ice4j.LocalCandidate

	var g errgroup.Group
	for _, h := range harvesters {
		h := h
		g.Go(func() error {
			logger.Info("开始收集", "server", h.Server().String())
			found := h.Harvest(component)

			mu.Lock()
			all = append(all, found...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if len(all) == 0 {
		fmt.Println("未发现候选")
		return nil
	}
	for _, c := range all {
		fmt.Println("发现候选:", c)
	}
	return nil
}

// buildHarvesters 按命令行参数装配收集器
func buildHarvesters() ([]ice4j.Harvester, error) {
	var harvesters []ice4j.Harvester

	for _, server := range splitServers(*stunServers) {
		addr, err := ice4j.ParseTransportAddress(server, ice4j.TransportUDP)
		if err != nil {
			return nil, fmt.Errorf("解析 STUN 服务器 %q 失败: %w", server, err)
		}
		h, err := ice4j.NewStunCandidateHarvester(addr)
		if err != nil {
			return nil, err
		}
		harvesters = append(harvesters, h)
	}

	var cred *ice4j.LongTermCredential
	if *username != "" {
		cred = ice4j.NewLongTermCredential(*username, *password)
	}
	for _, server := range splitServers(*turnServers) {
		addr, err := ice4j.ParseTransportAddress(server, ice4j.TransportUDP)
		if err != nil {
			return nil, fmt.Errorf("解析 TURN 服务器 %q 失败: %w", server, err)
		}
		harvesters = append(harvesters, ice4j.NewTurnCandidateHarvester(addr, cred))
	}

	return harvesters, nil
}

func splitServers(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
