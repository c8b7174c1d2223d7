package main

import "modlist-downloader/cmd"

func main() {
	cmd.Execute()
}
