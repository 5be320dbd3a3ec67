// Command example mirrors the canonical reminis pipeline: on the first run
// every function prints its name as it executes; on later runs with
// unchanged code and arguments nothing prints, and the result is served
// entirely from the cache under reminis_cache/.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/KeyMaster-/reminis"
	"github.com/zclconf/go-cty/cty/gocty"
)

func add(a, b int) int {
	fmt.Println("add")
	return a + b
}

func square(a int) int {
	fmt.Println("square")
	return a * a
}

func mul(a, b int) int {
	fmt.Println("mul")
	return a * b
}

func main() {
	ctx := context.Background()

	result, err := reminis.Compute(ctx, []reminis.Proc{
		{Fn: reminis.Func{Fn: add, Version: "1"}, Args: []any{2, 5}, Name: "adder"},
		{Fn: reminis.Func{Fn: square, Version: "1"}},
		{Fn: reminis.Func{Fn: mul, Version: "1"}, DependsOn: reminis.DependsOn(reminis.Dep("adder"), reminis.Dep("square"))},
		{Fn: reminis.Func{Fn: add, Version: "1"}, Name: "total", DependsOn: reminis.DependsOn(reminis.Previous(), reminis.Dep("square"))},
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var total int
	if err := gocty.FromCtyValue(result, &total); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(total) // 392
}
