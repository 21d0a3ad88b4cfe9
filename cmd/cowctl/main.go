// Command cowctl exercises copy-on-write chunks from the command line.
package main

func main() {
	execute()
}
