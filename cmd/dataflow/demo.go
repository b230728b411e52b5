package main

import (
	"fmt"

	"github.com/aretw0/dataflow"
	"github.com/aretw0/dataflow/internal/cli"
	"github.com/aretw0/dataflow/pkg/domain"
	"github.com/aretw0/dataflow/pkg/plugins/basic"
	"github.com/spf13/cobra"
)

var demoCmd = &cobra.Command{
	Use:   "demo [name]",
	Short: "Build and save a sample graph",
	Long:  `Builds (2 + 3) shown on a Display node and saves it to the configured store under the given name (default "demo").`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := "demo"
		if len(args) > 0 {
			name = args[0]
		}

		engine, closeStore, err := cli.CreateEngine(cfg, logger, nil)
		if err != nil {
			return err
		}
		defer closeStore()

		display, err := buildDemo(engine)
		if err != nil {
			return err
		}
		if err := engine.Save(cmd.Context(), name); err != nil {
			return err
		}

		value, _ := display.Last()
		stats := engine.Stats()
		cli.PrintSystemMessage("Saved %q: %d nodes, %d links, display shows %g", name, stats.Nodes, stats.Connections, value)
		return nil
	},
}

func buildDemo(e *dataflow.Engine) (*basic.Display, error) {
	create := func(key domain.NodeKey, x, y float64) (domain.Node, error) {
		id, err := e.CreateNode(key, x, y, false)
		if err != nil {
			return nil, err
		}
		n, _ := e.Node(id)
		return n, nil
	}

	a, err := create(basic.KeyConstant, 0, 0)
	if err != nil {
		return nil, err
	}
	b, err := create(basic.KeyConstant, 0, 100)
	if err != nil {
		return nil, err
	}
	add, err := create(basic.KeyAdd, 200, 50)
	if err != nil {
		return nil, err
	}
	out, err := create(basic.KeyDisplay, 400, 50)
	if err != nil {
		return nil, err
	}

	a.(*basic.Constant).Set(2)
	b.(*basic.Constant).Set(3)

	links := [][2]domain.SlotID{
		{a.Outputs()[0].ID(), add.Inputs()[0].ID()},
		{b.Outputs()[0].ID(), add.Inputs()[1].ID()},
		{add.Outputs()[0].ID(), out.Inputs()[0].ID()},
	}
	for _, l := range links {
		if _, ok := e.AddEdge(l[0], l[1]); !ok {
			return nil, fmt.Errorf("could not connect %d to %d", l[0], l[1])
		}
	}
	return out.(*basic.Display), nil
}

func init() {
	rootCmd.AddCommand(demoCmd)
}
