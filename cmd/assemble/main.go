// assemble 是 Assemble 合约的命令行客户端
package main

func main() {
	Execute()
}
