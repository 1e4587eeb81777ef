// Command docctl segments documents and resolves references against them
// offline, printing the results as YAML or JSON.
package main

func main() {
	Execute()
}
