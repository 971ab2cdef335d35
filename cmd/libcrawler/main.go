// Command libcrawler builds the C shared library:
//
//	go build -buildmode=c-shared -o libcrawler.so ./cmd/libcrawler
//
// crawler.h is the public header; the generated libcrawler.h is not meant
// for hosts.
package main

func main() {}
