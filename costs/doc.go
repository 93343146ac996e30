// 版权所有 2025 Autonomous Marketing Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 costs 提供纯函数式的成本估算与会话级成本台账。

Estimator 将 (backend, model, 数量) 映射为估算金额与人类可读的明细；
未知的 backend/model 组合返回零成本的 unknown 结果而不是报错。文本
估算通过 tiktoken 计算提示词 token 数。

Ledger 是只追加的会话累计器：成功与占位降级的操作都会入账，仅作
观测用途，永远不会导致生成失败。
*/
package costs
