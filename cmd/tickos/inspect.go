package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/viant/tickos/examples/hello"
	"github.com/viant/tickos/model/process"
	"github.com/viant/tickos/service/dao"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [session...]",
	Short: "Print stored sessions and their process trees",
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	srv, err := newService(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = srv.Close() }()

	ctx := cmd.Context()
	var parameters []*dao.Parameter
	if len(args) > 0 {
		parameters = append(parameters, dao.NewParameter("ID", args...))
	}
	sessions, err := srv.Sessions(ctx, parameters...)
	if err != nil {
		return err
	}
	out := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, session := range sessions {
		k, err := srv.Codec().Decode(session)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "session %s\ttick %d\tpending %d\tdeferred %d\tsleeping %d\n",
			session.ID, k.Tick(), k.Pending(), k.Deferred(), k.Sleeping())
		fmt.Fprintln(out, "PID\tPARENT\tTYPE\tCHILDREN")
		for _, pid := range k.Pids() {
			info, _ := k.Info(pid)
			parent := "-"
			if info.Parent != nil {
				parent = fmt.Sprint(*info.Parent)
			}
			fmt.Fprintf(out, "%d\t%s\t%s\t%v\n", pid, parent, typeName(info.Tag), info.Children)
		}
	}
	return out.Flush()
}

func typeName(tag process.TypeTag) string {
	switch tag {
	case hello.ParentTag:
		return "parent"
	case hello.ChildTag:
		return "child"
	case hello.MainTag:
		return "main"
	}
	return fmt.Sprintf("tag(%d)", tag)
}
