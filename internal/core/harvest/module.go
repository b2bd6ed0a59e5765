package harvest

import (
	"context"

	"go.uber.org/fx"

	"github.com/sclzwster/ice4j/internal/core/ice"
	"github.com/sclzwster/ice4j/pkg/types"
)

// ============================================================================
//                              模块输入依赖
// ============================================================================

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	// Config 模块配置（可选）
	Config *ModuleConfig `optional:"true"`
}

// ============================================================================
//                              模块输出服务
// ============================================================================

// ModuleOutput 定义模块输出服务
type ModuleOutput struct {
	fx.Out

	// Agent 候选收集代理，持有共享协议栈
	Agent *ice.Agent `name:"ice_agent"`

	// Harvesters 按配置装配的收集器
	Harvesters []Harvester `name:"harvesters"`
}

// ============================================================================
//                              服务提供
// ============================================================================

// ProvideServices 提供模块服务
func ProvideServices(input ModuleInput) (ModuleOutput, error) {
	config := DefaultModuleConfig()
	if input.Config != nil {
		config = input.Config
	}
	if err := config.Validate(); err != nil {
		return ModuleOutput{}, err
	}

	agent, err := ice.NewAgent()
	if err != nil {
		return ModuleOutput{}, err
	}

	harvesters, err := BuildHarvesters(config)
	if err != nil {
		agent.Close()
		return ModuleOutput{}, err
	}

	return ModuleOutput{
		Agent:      agent,
		Harvesters: harvesters,
	}, nil
}

// BuildHarvesters 按模块配置装配收集器列表
func BuildHarvesters(config *ModuleConfig) ([]Harvester, error) {
	var harvesters []Harvester

	for _, server := range config.StunServers {
		addr, err := types.ParseTransportAddress(server, types.TransportUDP)
		if err != nil {
			return nil, err
		}
		h, err := NewStunCandidateHarvester(addr)
		if err != nil {
			return nil, err
		}
		harvesters = append(harvesters, h)
	}

	var cred *types.LongTermCredential
	if config.Username != "" {
		cred = types.NewLongTermCredential(config.Username, config.Password)
	}
	for _, server := range config.TurnServers {
		addr, err := types.ParseTransportAddress(server, types.TransportUDP)
		if err != nil {
			return nil, err
		}
		harvesters = append(harvesters, NewTurnCandidateHarvester(addr, cred))
	}

	return harvesters, nil
}

// ============================================================================
//                              模块定义
// ============================================================================

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("harvest",
		fx.Provide(ProvideServices),
		fx.Invoke(registerLifecycle),
	)
}

// lifecycleInput 生命周期输入参数
type lifecycleInput struct {
	fx.In
	LC    fx.Lifecycle
	Agent *ice.Agent `name:"ice_agent"`
}

// registerLifecycle 注册生命周期
func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			logger.Info("收集模块启动")
			return nil
		},
		OnStop: func(_ context.Context) error {
			logger.Info("收集模块停止")
			if err := input.Agent.Close(); err != nil {
				logger.Warn("协议栈关闭失败", "err", err)
			}
			return nil
		},
	})
}

// ============================================================================
//                              模块元信息
// ============================================================================

// 模块元信息常量
const (
	Version     = "1.0.0"
	Name        = "harvest"
	Description = "STUN/TURN 候选收集模块，提供服务器反射与中继候选发现能力"
)
