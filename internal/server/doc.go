// 版权所有 2025 Autonomous Marketing Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 server 提供 HTTP 服务器生命周期管理，支持非阻塞启动、优雅关闭与
系统信号监听。API 服务与 metrics 服务各持有一个 Manager 实例。
*/
package server
