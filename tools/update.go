//go:build ignore

package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
)

const registry = "https://www.iana.org/assignments/service-names-port-numbers/service-names-port-numbers.csv"

//用于更新已知端口列表: go generate ./scan
func main() {
	out := flag.String("o", "./scan/known.go", "output file")
	maxPort := flag.Int("max", 65535, "skip ports above this value")
	flag.Parse()

	resp, err := http.Get(registry)
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()

	output, err := os.Create(*out)
	if err != nil {
		panic(err)
	}
	defer output.Close()

	fmt.Fprintf(output, `package scan

// data from %s
// regenerate with `+"`go generate ./scan`"+`
var knownPorts = map[int]string{`, registry)

	lastPort := ""
	reader := csv.NewReader(resp.Body)
	reader.FieldsPerRecord = -1
	for {
		// read one row from csv
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			panic(err)
		}

		if len(record) < 3 || record[2] != "tcp" || record[0] == "" || record[1] == "" || record[1] == lastPort {
			continue
		}
		port, err := strconv.Atoi(record[1])
		if err != nil || port > *maxPort { //范围条目(如 "6000-6063")跳过
			continue
		}

		lastPort = record[1]
		fmt.Fprintf(output, "\n\t%d: %q,", port, record[0])
	}

	fmt.Fprint(output, "\n}\n")
}
