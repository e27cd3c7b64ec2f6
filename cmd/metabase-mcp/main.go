// Copyright 2025 Metabase MCP Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"

	cli "github.com/dashbridge/metabase-mcp/internal"
)

// version is set by build flags during release
var version = "dev"

func main() {
	if err := cli.Root(version).Run(context.Background(), os.Args); err != nil {
		logrus.Fatal(err)
	}
}
