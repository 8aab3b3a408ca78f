package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/fulldump/goconfig"

	"github.com/fulldump/editdb/bootstrap"
	"github.com/fulldump/editdb/configuration"
)

var banner = `
  _____    _ _ _   ____  ____  
 | ____|__| (_) |_|  _ \| __ ) 
 |  _| / _' | | __| | | |  _ \ 
 | |__| (_| | | |_| |_| | |_) |
 |_____\__,_|_|\__|____/|____/ 
                 version ` + bootstrap.VERSION + `
`

func main() {

	c := configuration.Default()
	goconfig.Read(c)

	if c.Version {
		fmt.Println("Version:", bootstrap.VERSION)
		return
	}

	if c.ShowBanner {
		fmt.Println(banner)
	}

	if c.ShowConfig {
		e := json.NewEncoder(os.Stdout)
		e.SetIndent("", "    ")
		e.Encode(c)
	}

	start, _, err := bootstrap.Bootstrap(c)
	if err != nil {
		log.Println("ERROR:", err.Error())
		os.Exit(-1)
	}
	start()
}
