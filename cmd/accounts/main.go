package main

import accountscmd "go.lumeweb.com/accounts/cmd"

func main() {
	accountscmd.Main()
}
