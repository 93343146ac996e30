// 版权所有 2025 Autonomous Marketing Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 types 定义跨组件共享的基础类型：统一错误码、结构化错误、媒体种类
与四段式营销脚本模型。

错误分为两类：生成类错误（可重试/可降级，最终由占位资产兜底）与资源类
错误（IsFatal 为真，必须抛给调用方，绝不静默降级）。
*/
package types
