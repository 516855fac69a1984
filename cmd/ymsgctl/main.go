// Command ymsgctl is a small client and test pager for the YMSG protocol.
package main

func main() {
	Execute()
}
