// Command heapctl exercises the heapkit allocator from the command line.
package main

func main() {
	execute()
}
