// Command itinerai runs the travel planning assistant as an interactive
// console chat. Each line of input is one conversation turn; planning turns
// that still miss a destination or date come back as clarification questions,
// complete turns come back as an itinerary card.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/tools"
	"go.uber.org/zap"

	"github.com/itinerai/itinerai/internal/agents"
	"github.com/itinerai/itinerai/internal/checkpoints"
	"github.com/itinerai/itinerai/internal/config"
	"github.com/itinerai/itinerai/internal/graph"
	"github.com/itinerai/itinerai/internal/llm"
	"github.com/itinerai/itinerai/internal/rag"
	itintools "github.com/itinerai/itinerai/internal/tools"
	"github.com/itinerai/itinerai/internal/trip"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "itinerai:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	chatModel, err := openai.New(
		openai.WithBaseURL(cfg.Model.BaseURL),
		openai.WithToken(cfg.Model.APIKey),
		openai.WithModel(cfg.Model.ChatModel),
	)
	if err != nil {
		return err
	}
	intentModel, err := openai.New(
		openai.WithBaseURL(cfg.Model.BaseURL),
		openai.WithToken(cfg.Model.APIKey),
		openai.WithModel(cfg.Model.IntentModel),
	)
	if err != nil {
		return err
	}

	chatClient := llm.New(chatModel, llm.WithLogger(logger))
	intentClient := llm.New(intentModel, llm.WithLogger(logger))

	retriever := rag.NewRetriever(rag.NewMemoryStore(),
		rag.WithTopK(cfg.RAG.TopK),
		rag.WithScoreThreshold(cfg.RAG.ScoreThreshold),
		rag.WithLogger(logger),
	)

	researcher, err := agents.NewResearchAgent(chatClient, []tools.Tool{
		itintools.NewWeatherTool(cfg.Tools.WeatherKey),
		itintools.NewExchangeTool(cfg.Tools.ExchangeKey),
		itintools.NewKnowledgeTool(retriever),
	}, agents.WithLogger(logger))
	if err != nil {
		return err
	}
	defer researcher.Close()

	nodes := trip.Nodes{
		Router:    trip.NewIntentRouter(intentClient, logger),
		Chat:      trip.NewChatNode(chatClient, retriever, logger),
		Extractor: trip.NewExtractor(chatClient, logger),
		Research:  trip.NewResearchNode(researcher, logger),
		Planner:   trip.NewPlanner(chatClient, logger),
	}

	g, err := trip.NewPlanningGraph(nodes)
	if err != nil {
		return err
	}

	checkpointer, serviceOpts, cleanup, err := buildCheckpointing(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	compiled, err := g.Compile(
		graph.WithCheckpointer[trip.State](checkpointer),
		graph.WithMaxSteps[trip.State](cfg.Run.MaxSteps),
		graph.WithTimeout[trip.State](cfg.Run.Timeout),
		graph.WithLogger[trip.State](logger),
	)
	if err != nil {
		return err
	}

	service := trip.NewService(compiled, nodes,
		append(serviceOpts, trip.WithServiceLogger(logger))...)
	return chatLoop(service)
}

// buildCheckpointing wires the configured checkpoint backend and, for Redis,
// cross-instance thread locking.
func buildCheckpointing(cfg *config.Config, logger *zap.Logger) (graph.Checkpointer[trip.State], []trip.ServiceOption, func(), error) {
	noop := func() {}
	switch cfg.Checkpoint.Backend {
	case config.BackendRedis:
		client := backend.NewClient(&backend.Options{
			Addr:     cfg.Checkpoint.Redis.Addr,
			Password: cfg.Checkpoint.Redis.Password,
			DB:       cfg.Checkpoint.Redis.DB,
		})
		store := checkpoints.NewRedisStore[trip.State](client,
			checkpoints.WithTTL[trip.State](cfg.Checkpoint.TTL))
		locker := checkpoints.NewRedisLocker(client, "itinerai:")
		logger.Info("using redis checkpoints", zap.String("addr", cfg.Checkpoint.Redis.Addr))
		return checkpoints.NewStateCheckpointer[trip.State](store),
			[]trip.ServiceOption{trip.WithLocker(locker)},
			func() { client.Close() }, nil

	case config.BackendSQLite:
		store, err := checkpoints.NewSQLiteStore[trip.State](cfg.Checkpoint.SQLite.Path)
		if err != nil {
			return nil, nil, nil, err
		}
		logger.Info("using sqlite checkpoints", zap.String("path", cfg.Checkpoint.SQLite.Path))
		return checkpoints.NewStateCheckpointer[trip.State](store), nil,
			func() { store.Close() }, nil

	default:
		return checkpoints.NewStateCheckpointer[trip.State](
			checkpoints.NewMemoryStore[trip.State]()), nil, noop, nil
	}
}

func chatLoop(service *trip.Service) error {
	threadID := uuid.New().String()
	fmt.Println("itinerai 旅行助手（输入 exit 退出）")
	fmt.Println("会话:", threadID)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}

		reply := service.HandleTurn(context.Background(), threadID, line, threadID)
		printReply(reply)
	}
}

func printReply(reply trip.Reply) {
	switch reply.Type {
	case trip.ReplyCard:
		pretty, err := json.MarshalIndent(reply.Data, "", "  ")
		if err != nil {
			fmt.Println(reply.Data)
			return
		}
		fmt.Println(string(pretty))
	default:
		fmt.Println(reply.Data)
	}
}
